package sms_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/spachava753/smskit/android"
	"github.com/spachava753/smskit/assist"
	"github.com/spachava753/smskit/gateway"
	"github.com/spachava753/smskit/sms"
	"github.com/spachava753/smskit/sms/gsm"
)

func composeUnreadFromContact(ctx context.Context, dbPath string, contact string) ([]sms.Record, error) {
	store, err := android.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	svc := sms.NewService(store, nil, sms.NewStaticGate(sms.CapabilityRead))
	records, err := svc.GetMessages(ctx, sms.Filter{Box: sms.BoxInbox, Address: contact}, sms.MaxLimit)
	if err != nil {
		return nil, err
	}

	unread := make([]sms.Record, 0, len(records))
	for _, r := range records {
		if !r.Read {
			unread = append(unread, r)
		}
	}
	return unread, nil
}

func composeReplyToLatest(ctx context.Context, svc *sms.Service, body string) (sms.SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	latest, err := sms.Await(ctx, func(ctx context.Context) ([]sms.Record, error) {
		return svc.GetMessages(ctx, sms.Filter{}, 1)
	})
	if err != nil {
		return sms.SendResult{}, err
	}
	if len(latest) == 0 {
		return sms.SendResult{}, errors.New("inbox is empty")
	}

	return sms.Await(ctx, func(ctx context.Context) (sms.SendResult, error) {
		return svc.SendMessage(ctx, latest[0].Address, body)
	})
}

func composeGatewaySender(password string) (*sms.Service, error) {
	tr, err := gateway.New(gateway.Config{
		Addr:      "smtp.gmail.com:465",
		Username:  "me@gmail.com",
		Password:  password,
		From:      "me@gmail.com",
		Domain:    "vtext.com",
		PerSecond: 1,
	})
	if err != nil {
		return nil, err
	}
	return sms.NewService(nil, tr, sms.NewStaticGate(sms.CapabilitySend), sms.WithPolicy(gsm.Policy{})), nil
}

func composeTopCorrespondents(ctx context.Context, svc *sms.Service, n int) ([]string, error) {
	records, err := svc.GetMessages(ctx, sms.Filter{Box: sms.BoxAll}, sms.MaxLimit)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, r := range records {
		if r.Address != "" {
			counts[r.Address]++
		}
	}
	addresses := make([]string, 0, len(counts))
	for address := range counts {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		if counts[addresses[i]] == counts[addresses[j]] {
			return addresses[i] < addresses[j]
		}
		return counts[addresses[i]] > counts[addresses[j]]
	})
	if len(addresses) > n {
		addresses = addresses[:n]
	}
	return addresses, nil
}

func composeConfirmAssistantAction(ctx context.Context, svc *sms.Service, reply string, confirm func(sms.SendRequest) bool) (string, error) {
	parsed := assist.ParseAction(reply)
	if parsed.Action == nil {
		return parsed.DisplayText, nil
	}

	req := sms.SendRequest{Address: parsed.Action.To, Body: parsed.Action.Body}
	if !confirm(req) {
		return parsed.DisplayText, nil
	}
	result, err := svc.SendMessage(ctx, req.Address, req.Body)
	if err != nil {
		if sms.CodeOf(err) == sms.CodePermissionDenied {
			return parsed.DisplayText + "\n(sending is not permitted)", nil
		}
		return "", err
	}
	return strings.TrimSpace(parsed.DisplayText + "\n" + result.Message), nil
}
