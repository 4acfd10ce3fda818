package probe

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnidesk/mailsync/internal/mailconn"
	"github.com/omnidesk/mailsync/internal/oplog"
	"github.com/omnidesk/mailsync/internal/syncerr"
	"github.com/omnidesk/mailsync/pkg/models"
)

type nullStore struct{}

func (nullStore) CreateSyncLog(ctx context.Context, entry *models.SyncOperationLog) error {
	return nil
}

func testOp() *oplog.Operation {
	return oplog.Start(context.Background(), nullStore{}, slog.New(slog.DiscardHandler), 0, models.OpTypeDeepTest)
}

func TestBuildVariantsFullEmailOn993(t *testing.T) {
	variants := BuildVariants(mailconn.Config{
		Host: "mail.example.com", Port: 993, Username: "user@example.com", Password: "pw", UseTLS: true,
	})

	require.Len(t, variants, 4)
	assert.Equal(t, "original", variants[0].Name)
	assert.Equal(t, "local_part_username", variants[1].Name)
	assert.Equal(t, "user", variants[1].Config.Username)
	assert.Equal(t, "port_143_no_tls", variants[2].Name)
	assert.Equal(t, 143, variants[2].Config.Port)
	assert.False(t, variants[2].Config.UseTLS)
	assert.Equal(t, "port_143_no_tls_local_part", variants[3].Name)
	assert.Equal(t, "user", variants[3].Config.Username)
}

func TestBuildVariantsPlainUsernameOn143(t *testing.T) {
	variants := BuildVariants(mailconn.Config{
		Host: "mail.example.com", Port: 143, Username: "user", Password: "pw",
	})

	require.Len(t, variants, 2)
	assert.Equal(t, "original", variants[0].Name)
	assert.Equal(t, "port_993_tls", variants[1].Name)
	assert.Equal(t, 993, variants[1].Config.Port)
	assert.True(t, variants[1].Config.UseTLS)
}

func TestDeepTestShortCircuitsOnFirstSuccess(t *testing.T) {
	var tried []string
	prober := &Prober{connect: func(ctx context.Context, cfg mailconn.Config, op *oplog.Operation) (*mailconn.IMAPSession, error) {
		tried = append(tried, cfg.Username)
		// Full-email username fails auth, local part succeeds.
		if cfg.Username == "user@example.com" {
			return nil, syncerr.New(syncerr.CodeIMAPAuthFailed, "server rejected credentials")
		}
		return &mailconn.IMAPSession{}, nil
	}}

	report := prober.DeepTest(context.Background(), mailconn.Config{
		Host: "mail.example.com", Port: 993, Username: "user@example.com", Password: "pw", UseTLS: true,
	}, testOp())

	require.True(t, report.OK)
	assert.Equal(t, "local_part_username", report.WorkingVariant)
	require.NotNil(t, report.WorkingConfig)
	assert.Equal(t, "user", report.WorkingConfig.Username)
	assert.Equal(t, 993, report.WorkingConfig.Port)
	assert.Empty(t, report.WorkingConfig.Password)

	// Port-143 variants must not have been attempted.
	assert.Equal(t, []string{"user@example.com", "user"}, tried)
	require.Len(t, report.Attempts, 2)
	assert.Equal(t, syncerr.CodeIMAPAuthFailed, report.Attempts[0].Code)
	assert.True(t, report.Attempts[1].OK)
}

func TestDeepTestAllFail(t *testing.T) {
	prober := &Prober{connect: func(ctx context.Context, cfg mailconn.Config, op *oplog.Operation) (*mailconn.IMAPSession, error) {
		return nil, syncerr.New(syncerr.CodeConnectionTimeout, "connection timed out")
	}}

	report := prober.DeepTest(context.Background(), mailconn.Config{
		Host: "mail.example.com", Port: 993, Username: "user@example.com", Password: "pw", UseTLS: true,
	}, testOp())

	assert.False(t, report.OK)
	assert.Empty(t, report.WorkingVariant)
	assert.Nil(t, report.WorkingConfig)
	assert.Len(t, report.Attempts, 4)
	assert.Equal(t, RemediationHint, report.Hint)
	for _, attempt := range report.Attempts {
		assert.Equal(t, syncerr.CodeConnectionTimeout, attempt.Code)
		assert.Empty(t, attempt.Config.Password)
	}
}
