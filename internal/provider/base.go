package provider

import (
	"context"

	"github.com/seenimoa/newspulse/pkg/models"
)

// BaseSource provides credential handling for source implementations.
// Embed it and call Ready at the top of Fetch.
type BaseSource struct {
	info        ProviderInfo
	credentials map[string]string
	initErr     error
	client      *Client
}

// NewBaseSource creates a base source. It starts uninitialised when any
// credential is required.
func NewBaseSource(info ProviderInfo, client *Client) BaseSource {
	if client == nil {
		client = NewClient(ClientOptions{})
	}
	b := BaseSource{info: info, client: client, credentials: map[string]string{}}
	b.initErr = b.check(nil)
	return b
}

func (b *BaseSource) Info() ProviderInfo { return b.info }

// Init validates and stores credentials.
func (b *BaseSource) Init(credentials map[string]string) error {
	b.initErr = b.check(credentials)
	if b.initErr != nil {
		return b.initErr
	}
	b.credentials = credentials
	return nil
}

func (b *BaseSource) check(credentials map[string]string) error {
	for _, cred := range b.info.Credentials {
		if !cred.Required {
			continue
		}
		if credentials[cred.Name] == "" {
			return &ErrMissingCredential{Provider: b.info.Name, Credential: cred.Name}
		}
	}
	return nil
}

// Ready returns the credential error recorded by the last Init, if any.
func (b *BaseSource) Ready() error { return b.initErr }

// Credential returns a stored credential value.
func (b *BaseSource) Credential(name string) string {
	return b.credentials[name]
}

// Client returns the shared HTTP client.
func (b *BaseSource) Client() *Client { return b.client }

// Name is shorthand for Info().Name.
func (b *BaseSource) Name() models.ProviderName { return b.info.Name }

// Ping reports credential readiness. Override for a live check.
func (b *BaseSource) Ping(ctx context.Context) error {
	if err := b.Ready(); err != nil {
		return err
	}
	return ctx.Err()
}
