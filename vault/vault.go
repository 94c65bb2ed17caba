package vault

import (
	"bookbyblock-backend/algorand"
	"bookbyblock-backend/codec"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Vault stores the token-signing secret and the per-event issuer accounts.
type Vault struct {
	SigningPath string
	EventPath   string
	*api.Client
}

func New(token, unsealKey, address, signingPath, eventPath string) (*Vault, error) {
	config := &api.Config{
		Address: address,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("new: error initializing vault: %w", err)
	}

	client.SetToken(token)

	s := client.Sys()
	status, err := s.SealStatus()
	if err != nil {
		return nil, fmt.Errorf("new: error getting seal status: %w", err)
	}

	if status.Sealed {
		unsealResponse, err := s.Unseal(unsealKey)
		if err != nil {
			return nil, fmt.Errorf("new: error getting unseal response: %w", err)
		}
		if unsealResponse.Sealed {
			return nil, fmt.Errorf("new: vault unseal unsuccesfull")
		}
	}

	err = createIfNotExists(client, signingPath)
	if err != nil {
		return nil, fmt.Errorf("new: unable to mount signing path: %w", err)
	}

	err = createIfNotExists(client, eventPath)
	if err != nil {
		return nil, fmt.Errorf("new: unable to mount event path: %w", err)
	}

	return &Vault{SigningPath: signingPath, EventPath: eventPath, Client: client}, nil
}

// SigningSecret reads the symmetric token-signing key. The secret is scoped
// to the service instance: callers inject it at construction, nothing reads
// it ambiently afterwards.
func (v *Vault) SigningSecret(key string) ([]byte, error) {
	s, err := v.Logical().Read(fmt.Sprintf("%s/token", v.SigningPath))
	if err != nil {
		return nil, fmt.Errorf("signingSecret: unable to read signing path: %w", err)
	}
	if s == nil || s.Data[key] == nil {
		return nil, fmt.Errorf("signingSecret: no signing secret at %s/token", v.SigningPath)
	}

	secret, ok := s.Data[key].(string)
	if !ok || secret == "" {
		return nil, fmt.Errorf("signingSecret: signing secret is not a string")
	}

	return []byte(secret), nil
}

// StoreEventAccount writes an event issuer account, passphrase encrypted
// with encKey.
func (v *Vault) StoreEventAccount(eventID int64, a *algorand.Account, encKey []byte) error {
	sealed, err := codec.Encrypt(encKey, []byte(a.SecurityPassphrase))
	if err != nil {
		return fmt.Errorf("storeEventAccount: unable to encrypt passphrase: %w", err)
	}

	path := fmt.Sprintf("%s/%d", v.EventPath, eventID)
	data := map[string]interface{}{
		"account_address":     a.AccountAddress,
		"security_passphrase": sealed,
	}
	if _, err := v.Logical().Write(path, data); err != nil {
		return fmt.Errorf("storeEventAccount: unable to write to vault: %w", err)
	}

	return nil
}

// EventAccount loads and unseals an event issuer account.
func (v *Vault) EventAccount(eventID int64, encKey []byte) (*algorand.Account, error) {
	path := fmt.Sprintf("%s/%d", v.EventPath, eventID)
	s, err := v.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("eventAccount: unable to read %s: %w", path, err)
	}
	if s == nil {
		return nil, fmt.Errorf("eventAccount: no account stored for event %d", eventID)
	}

	address, _ := s.Data["account_address"].(string)
	sealed, _ := s.Data["security_passphrase"].(string)
	if address == "" || sealed == "" {
		return nil, fmt.Errorf("eventAccount: incomplete account record for event %d", eventID)
	}

	passphrase, err := codec.Decrypt(encKey, sealed)
	if err != nil {
		return nil, fmt.Errorf("eventAccount: unable to decrypt passphrase: %w", err)
	}

	return &algorand.Account{
		AccountAddress:     address,
		SecurityPassphrase: string(passphrase),
	}, nil
}

func createIfNotExists(client *api.Client, path string) error {
	mounts, err := client.Sys().ListMounts()
	if err != nil {
		return fmt.Errorf("createIfNotExists: unable to list mounts: %w", err)
	}

	if _, ok := mounts[path+"/"]; !ok {
		err = client.Sys().Mount(path, &api.MountInput{Type: "kv"})
		if err != nil {
			return fmt.Errorf("createIfNotExists: unable to create path: %w", err)
		}
	}

	return nil
}
