package smsbackup

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/spachava753/smskit/sms"
)

const (
	liveTestFlagEnv = "SMSKIT_LIVE_TEST"
	envUsername     = "SMSKIT_BACKUP_USERNAME"
	envPassword     = "SMSKIT_BACKUP_PASSWORD"
	envMailbox      = "SMSKIT_BACKUP_MAILBOX"
)

func TestLiveArchiveQuery(t *testing.T) {
	if os.Getenv(liveTestFlagEnv) != "1" {
		t.Skipf("set %s=1 to run live SMS Backup+ tests", liveTestFlagEnv)
	}
	username := strings.TrimSpace(os.Getenv(envUsername))
	password := strings.TrimSpace(os.Getenv(envPassword))
	if username == "" || password == "" {
		t.Skipf("set %s and %s to run live SMS Backup+ tests", envUsername, envPassword)
	}

	store, err := New(Config{
		Addr:     "imap.gmail.com:993",
		Username: username,
		Password: password,
		Mailbox:  os.Getenv(envMailbox),
	})
	be.Err(t, err, nil)

	svc := sms.NewService(store, nil, sms.NewStaticGate(sms.CapabilityRead))
	records, err := svc.GetMessages(context.Background(), sms.Filter{Box: sms.BoxAll}, 5)
	be.Err(t, err, nil)
	be.True(t, len(records) <= 5)
	for i := 1; i < len(records); i++ {
		be.True(t, records[i-1].Date >= records[i].Date)
	}
}
