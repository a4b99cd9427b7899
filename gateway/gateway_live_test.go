package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

const (
	liveTestFlagEnv = "SMSKIT_LIVE_TEST"
	liveRecipient   = "SMSKIT_TEST_RECIPIENT"
)

func TestLiveSend(t *testing.T) {
	if os.Getenv(liveTestFlagEnv) != "1" {
		t.Skipf("set %s=1 to run live gateway tests", liveTestFlagEnv)
	}
	cfg := Config{
		Addr:     os.Getenv("SMSKIT_GATEWAY_ADDR"),
		Username: os.Getenv("SMSKIT_GATEWAY_USERNAME"),
		Password: os.Getenv("SMSKIT_GATEWAY_PASSWORD"),
		From:     os.Getenv("SMSKIT_GATEWAY_FROM"),
		Domain:   os.Getenv("SMSKIT_GATEWAY_DOMAIN"),
	}
	recipient := strings.TrimSpace(os.Getenv(liveRecipient))
	if cfg.Addr == "" || recipient == "" {
		t.Skipf("set SMSKIT_GATEWAY_* and %s to run live gateway tests", liveRecipient)
	}

	tr, err := New(cfg)
	be.Err(t, err, nil)

	body := fmt.Sprintf("smskit live test %d", time.Now().Unix())
	be.Err(t, tr.SendText(context.Background(), recipient, body), nil)
}
