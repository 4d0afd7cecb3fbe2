package user

import (
	"context"

	"github.com/trezcool/dhamira/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose mailers run synchronously
// so tests can assert on sent messages.
func NewServiceMock(repo Repository, mailSvc core.EmailService, cache core.KVCache, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			cache:   cache,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *serviceMock) RequestEmailVerification(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := generateVerificationCode()
	if err != nil {
		return err
	}
	svc.cache.Put(verificationCacheKey(usr.Email), code, svc.conf.EmailVerificationTimeout)
	// run synchronously
	svc.sendEmailVerificationMail(usr, code)
	return nil
}
