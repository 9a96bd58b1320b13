package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("username already taken")
	ErrInvalidInput       = errors.New("invalid input")
)

const DefaultMinUsernameLen = 3

type CredentialsParams struct {
	MinUsernameLen int
	// HashPasswords makes Register store bcrypt hashes instead of plaintext.
	HashPasswords bool
	HashCost      int
}

// Credentials checks and creates accounts in the Users table.
// Registration is a read followed by an append, so two concurrent
// registrations of the same name can both succeed.
type Credentials struct {
	store          rowstore.Store
	minUsernameLen int
	hashPasswords  bool
	hashCost       int
}

func NewCredentials(store rowstore.Store, params CredentialsParams) *Credentials {
	if params.MinUsernameLen <= 0 {
		params.MinUsernameLen = DefaultMinUsernameLen
	}
	if params.HashCost <= 0 {
		params.HashCost = pkg.DefaultHashCost
	}
	return &Credentials{
		store:          store,
		minUsernameLen: params.MinUsernameLen,
		hashPasswords:  params.HashPasswords,
		hashCost:       params.HashCost,
	}
}

// users returns all rows of the Users table. A missing table means no users.
func (c *Credentials) users(ctx context.Context) ([]rowstore.Record, error) {
	records, err := c.store.ReadAll(ctx, rowstore.TableUsers)
	if errors.Is(err, rowstore.ErrMissingTable) {
		log.Warnf("credentials: %s table missing, treating as empty", rowstore.TableUsers)
		return nil, nil
	}
	return records, err
}

// Authenticate returns the username when a Users row matches both fields.
// Stored bcrypt hashes are compared with bcrypt, anything else by exact match.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "credentials.authenticate")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("username", username))

	records, err := c.users(ctx)
	if err != nil {
		return "", err
	}

	for _, rec := range records {
		if rec[rowstore.ColUsername] != username {
			continue
		}
		if passwordMatches(rec[rowstore.ColPassword], password) {
			return username, nil
		}
	}

	return "", ErrInvalidCredentials
}

func passwordMatches(stored, given string) bool {
	if pkg.LooksLikeBcryptHash(stored) {
		return pkg.CheckPasswordHash(given, stored)
	}
	return stored == given
}

// Register appends a new Users row.
func (c *Credentials) Register(ctx context.Context, username, password, confirm string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "credentials.register")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("username", username))

	if utf8.RuneCountInString(strings.TrimSpace(username)) < c.minUsernameLen {
		return fmt.Errorf("%w: username must have at least %d characters", ErrInvalidInput, c.minUsernameLen)
	}
	if password == "" {
		return fmt.Errorf("%w: password empty", ErrInvalidInput)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	records, err := c.users(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec[rowstore.ColUsername] == username {
			return fmt.Errorf("%w: %s", ErrDuplicateUser, username)
		}
	}

	stored := password
	if c.hashPasswords {
		stored, err = pkg.HashPasswordWithCost(password, c.hashCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	if records == nil {
		if err := c.store.EnsureTable(ctx, rowstore.TableUsers, rowstore.UsersHeader); err != nil {
			return err
		}
	}

	if err := c.store.AppendRow(ctx, rowstore.TableUsers, rowstore.Row{username, stored}); err != nil {
		return err
	}

	log.Infof("credentials: registered new user [%s]", username)
	return nil
}
