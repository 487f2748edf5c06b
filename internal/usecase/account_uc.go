package usecase

import (
	"context"
	"errors"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"
	"telegram-chat-bridge/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Translator resolves message keys to user-facing text. Satisfied by
// i18n.Translator; use cases only ever format, never load locales.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Compile-time check
var _ AccountUseCase = (*accountUC)(nil)

// AccountUseCase covers registration and credential checks for web accounts.
type AccountUseCase interface {
	// Register creates the account and provisions its pairing token in one
	// transaction; an account never exists without exactly one token.
	Register(ctx context.Context, username, password, firstName string) (*model.User, *model.PairingToken, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	// Count reports the number of registered accounts; the health probe uses
	// it as a cheap store round trip.
	Count(ctx context.Context) (int, error)
}

type accountUC struct {
	users   repository.UserRepository
	pairing PairingUseCase
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewAccountUseCase(users repository.UserRepository, pairing PairingUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *accountUC {
	return &accountUC{
		users:   users,
		pairing: pairing,
		tm:      tm,
		log:     logger,
	}
}

func (a *accountUC) Register(ctx context.Context, username, password, firstName string) (*model.User, *model.PairingToken, error) {
	defer logging.TraceDuration(a.log, "AccountUC.Register")()

	user, err := model.NewUser("", username, password, firstName)
	if err != nil {
		return nil, nil, err
	}

	var token *model.PairingToken
	// Serializable so the username check and both inserts act as one atomic step.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = a.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if existing, err := a.users.FindByUsername(ctx, tx, user.Username); err == nil && !existing.IsZero() {
			return domain.ErrAlreadyExists
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := a.users.Save(ctx, tx, user); err != nil {
			return err
		}
		t, err := a.pairing.Provision(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	a.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("account registered")
	return user, token, nil
}

func (a *accountUC) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(a.log, "AccountUC.Authenticate")()

	user, err := a.users.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (a *accountUC) Get(ctx context.Context, userID string) (*model.User, error) {
	return a.users.FindByID(ctx, repository.NoTX, userID)
}

func (a *accountUC) Count(ctx context.Context) (int, error) {
	return a.users.CountUsers(ctx, repository.NoTX)
}
