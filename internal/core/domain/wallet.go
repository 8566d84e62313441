package domain

import "time"

const (
	SecurityKMSEnhanced = "kms-enhanced"

	DefaultKMSKeyID      = "alias/hedera-wallet-keys"
	DefaultSecretPrefix  = "hedera-wallet/"
	DefaultAccountType   = "ECDSA_SECP256K1"
	DefaultWalletVersion = "2.0"
)

// EncryptionInfo names the KMS key and the secret holding the encrypted
// private key. The key material itself never leaves the backend.
type EncryptionInfo struct {
	KMSKeyID   string `json:"kmsKeyId"`
	SecretName string `json:"secretName"`
}

// SecureWalletInfo is the client view of a KMS-enhanced wallet. AccountAlias
// is immutable once created.
type SecureWalletInfo struct {
	UserID         string         `json:"userId"`
	AccountAlias   string         `json:"accountAlias"`
	PublicKey      string         `json:"publicKey"`
	EncryptionInfo EncryptionInfo `json:"encryptionInfo"`
	Security       string         `json:"security"`
	AccountType    string         `json:"accountType"`
	NeedsFunding   bool           `json:"needsFunding"`
	CreatedAt      time.Time      `json:"createdAt"`
	Version        string         `json:"version"`
}

// WalletBalance is advisory display data; the ledger mirror is authoritative.
type WalletBalance struct {
	HBAR        float64   `json:"hbar"`
	USD         float64   `json:"usd"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Transfer is a single account movement inside a ledger transaction, in tinybars.
type Transfer struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// LedgerTransaction is a transaction summary read from the public mirror.
type LedgerTransaction struct {
	TransactionID      string     `json:"transactionId"`
	Name               string     `json:"name"`
	Result             string     `json:"result"`
	ConsensusTimestamp string     `json:"consensusTimestamp"`
	ChargedFee         int64      `json:"chargedFee"`
	Transfers          []Transfer `json:"transfers"`
}

// ProgressStage names a milestone of wallet creation.
type ProgressStage string

const (
	StageInitializing    ProgressStage = "initializing"
	StageCreatingAccount ProgressStage = "creating_account"
	StageUpdatingProfile ProgressStage = "updating_profile"
	StageComplete        ProgressStage = "complete"
	StageFailed          ProgressStage = "failed"
)

// CreateWalletProgress is emitted at fixed milestones while a wallet is created.
type CreateWalletProgress struct {
	Stage   ProgressStage `json:"stage"`
	Percent int           `json:"percent"`
	Message string        `json:"message"`
}
