package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dhamira/core"
)

// fakeRepository implements just enough of Repository for the
// verification flow; unused methods panic via the embedded nil interface.
type fakeRepository struct {
	Repository
	users map[string]User // keyed by ID
}

func (repo *fakeRepository) GetUser(_ context.Context, filter GetFilter) (User, error) {
	for _, usr := range repo.users {
		if (filter.ID != "" && usr.ID == filter.ID) ||
			(filter.Email != "" && usr.Email == filter.Email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *fakeRepository) UpdateUser(_ context.Context, usr User, _ *bool) (User, error) {
	orig, ok := repo.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.EmailVerified {
		orig.EmailVerified = true
	}
	orig.UpdatedAt = usr.UpdatedAt
	repo.users[usr.ID] = orig
	return orig, nil
}

type fakeCache struct {
	entries map[string]string
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) Put(key, value string, ttl time.Duration) {
	c.entries[key] = value
	c.ttls[key] = ttl
}

func (c *fakeCache) Get(key string) (string, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return "", core.ErrCacheMiss
}

func (c *fakeCache) Delete(key string) {
	delete(c.entries, key)
	delete(c.ttls, key)
}

type fakeMailer struct {
	sent []*core.EmailMessage
}

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func TestServiceEmailVerification(t *testing.T) {
	conf := &core.Config{
		AppName:                  "Dhamira",
		SecretKey:                "secret",
		EmailVerificationTimeout: 10 * time.Minute,
	}

	newFixtures := func(t *testing.T) (Service, *fakeRepository, *fakeCache, *fakeMailer, User) {
		t.Helper()
		now := time.Now().UTC()
		usr := User{
			ID:        "91df2983-5b39-4fbd-a324-13b4f6da00ad",
			Name:      "Vusi V",
			Username:  "vusiv",
			Email:     "vusiv@test.cd",
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)

		repo := &fakeRepository{users: map[string]User{usr.ID: usr}}
		cache := newFakeCache()
		mailer := &fakeMailer{}
		svc := NewServiceMock(repo, mailer, cache, conf)
		return svc, repo, cache, mailer, usr
	}

	ctx := context.Background()
	codeRx := regexp.MustCompile(`^\d{6}$`)

	t.Run("request caches code and mails it", func(t *testing.T) {
		svc, _, cache, mailer, usr := newFixtures(t)

		require.NoError(t, svc.RequestEmailVerification(ctx, usr.Email))

		code, err := cache.Get(verificationCacheKey(usr.Email))
		require.NoError(t, err)
		assert.Regexp(t, codeRx, code)
		assert.Equal(t, conf.EmailVerificationTimeout, cache.ttls[verificationCacheKey(usr.Email)])

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "Email Verification", mailer.sent[0].Subject)
		assert.Equal(t, usr.Email, mailer.sent[0].To[0].Address)
	})

	t.Run("request for unknown email", func(t *testing.T) {
		svc, _, cache, mailer, _ := newFixtures(t)

		err := svc.RequestEmailVerification(ctx, "ghost@test.cd")
		assert.Equal(t, ErrNotFound, err)
		assert.Empty(t, cache.entries)
		assert.Empty(t, mailer.sent)
	})

	t.Run("verify marks email verified", func(t *testing.T) {
		svc, repo, cache, _, usr := newFixtures(t)
		require.NoError(t, svc.RequestEmailVerification(ctx, usr.Email))
		code, err := cache.Get(verificationCacheKey(usr.Email))
		require.NoError(t, err)

		require.NoError(t, svc.VerifyEmail(ctx, VerifyEmail{Email: usr.Email, Code: code}))
		assert.True(t, repo.users[usr.ID].EmailVerified)

		// the code is single-use
		_, err = cache.Get(verificationCacheKey(usr.Email))
		assert.Equal(t, core.ErrCacheMiss, err)
		err = svc.VerifyEmail(ctx, VerifyEmail{Email: usr.Email, Code: code})
		assert.IsType(t, &core.ValidationError{}, err)
	})

	t.Run("verify with wrong code", func(t *testing.T) {
		svc, repo, cache, _, usr := newFixtures(t)
		cache.Put(verificationCacheKey(usr.Email), "123456", conf.EmailVerificationTimeout)

		err := svc.VerifyEmail(ctx, VerifyEmail{Email: usr.Email, Code: "654321"})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "code", vErr.Fields[0].Field)
		assert.False(t, repo.users[usr.ID].EmailVerified)
	})

	t.Run("verify with no cached code", func(t *testing.T) {
		svc, repo, _, _, usr := newFixtures(t)

		err := svc.VerifyEmail(ctx, VerifyEmail{Email: usr.Email, Code: "123456"})
		assert.IsType(t, &core.ValidationError{}, err)
		assert.False(t, repo.users[usr.ID].EmailVerified)
	})

	t.Run("verify for unknown email", func(t *testing.T) {
		svc, _, _, _, _ := newFixtures(t)

		err := svc.VerifyEmail(ctx, VerifyEmail{Email: "ghost@test.cd", Code: "123456"})
		assert.Equal(t, ErrNotFound, err)
	})
}
