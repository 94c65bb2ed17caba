package config

import (
	"github.com/spf13/viper"
)

const (
	DBURL = "database.mysql"

	Port   = "server.port"
	Secret = "server.secret"

	TokenWindowMillis = "token.window_millis"
	TokenNonceBytes   = "token.nonce_bytes"

	MaxResales     = "policy.max_resales"
	MaxMarkupBps   = "policy.max_markup_bps"
	PlatformFeeBps = "policy.platform_fee_bps"
	FeeRecipient   = "policy.fee_recipient"

	LedgerBackend = "ledger.backend"

	FromAddress            = "algorand.from_address"
	FromSecurityParaphrase = "algorand.from_security_paraphrase"
	ApiAddress             = "algorand.api_address"
	ApiKey                 = "algorand.api_key"
	MinFee                 = "algorand.min_fee"

	VaultAddress    = "vault.address"
	VaultToken      = "vault.token"
	VaultUnSealKey  = "vault.unseal_key"
	SigningPath     = "vault.signing_path"
	EventPath       = "vault.event_path"
	SigningSecretAt = "vault.signing_secret_key"

	RedisAddress  = "redis.address"
	RedisPassword = "redis.password"
	RedisDB       = "redis.db"
)

const (
	LedgerBackendMemory = "memory"
	LedgerBackendChain  = "chain"
)

func init() {
	viper.AutomaticEnv()
	viper.SetDefault(Port, "9000")
	viper.SetDefault(TokenWindowMillis, 10000)
	viper.SetDefault(TokenNonceBytes, 16)
	viper.SetDefault(MaxResales, 2)
	viper.SetDefault(MaxMarkupBps, 1000)
	viper.SetDefault(PlatformFeeBps, 250)
	viper.SetDefault(LedgerBackend, LedgerBackendMemory)
	viper.SetDefault(SigningSecretAt, "signing_secret")
}
