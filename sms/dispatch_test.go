package sms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/spachava753/smskit/sms/gsm"
)

type recordingTransport struct {
	single    []string
	multipart [][]string
	divide    func(string) []string
	err       error
}

func (r *recordingTransport) Divide(body string) []string {
	if r.divide != nil {
		return r.divide(body)
	}
	return gsm.Segmenter{}.Divide(body)
}

func (r *recordingTransport) SendText(_ context.Context, address string, body string) error {
	if r.err != nil {
		return r.err
	}
	r.single = append(r.single, address+":"+body)
	return nil
}

func (r *recordingTransport) SendMultipart(_ context.Context, address string, parts []string) error {
	if r.err != nil {
		return r.err
	}
	r.multipart = append(r.multipart, append([]string(nil), parts...))
	return nil
}

func TestDispatchExactlyThresholdIsSingle(t *testing.T) {
	tr := &recordingTransport{}
	body := strings.Repeat("a", 160)

	result, segments, err := Dispatcher{Transport: tr}.Dispatch(context.Background(), SendRequest{Address: "+15550001", Body: body})
	be.Err(t, err, nil)
	be.Equal(t, segments, 1)
	be.Equal(t, result, SendResult{Success: true, Message: "SMS sent to +15550001"})
	be.Equal(t, tr.single, []string{"+15550001:" + body})
	be.Equal(t, len(tr.multipart), 0)
}

func TestDispatchOverThresholdIsMultipart(t *testing.T) {
	tr := &recordingTransport{}
	body := strings.Repeat("abcdefghij", 16) + "k"

	result, segments, err := Dispatcher{Transport: tr}.Dispatch(context.Background(), SendRequest{Address: "555", Body: body})
	be.Err(t, err, nil)
	be.True(t, result.Success)
	be.Equal(t, len(tr.single), 0)
	be.Equal(t, len(tr.multipart), 1)
	be.True(t, segments > 1)
	be.Equal(t, segments, len(tr.multipart[0]))
	be.Equal(t, strings.Join(tr.multipart[0], ""), body)
}

func TestDispatchCountsUTF16Units(t *testing.T) {
	be.True(t, UnitLimit(4).SinglePart("ab👍"))
	be.True(t, !UnitLimit(3).SinglePart("ab👍"))
	be.True(t, UnitLimit(160).SinglePart(strings.Repeat("é", 160)))
}

func TestDispatchUsesReplacementPolicy(t *testing.T) {
	tr := &recordingTransport{}
	body := strings.Repeat("я", 71)

	_, segments, err := Dispatcher{Transport: tr, Policy: gsm.Policy{}}.Dispatch(context.Background(), SendRequest{Address: "1", Body: body})
	be.Err(t, err, nil)
	be.Equal(t, segments, 2)
	be.Equal(t, len(tr.single), 0)
}

func TestDispatchTransportFailure(t *testing.T) {
	tr := &recordingTransport{err: errors.New("generic failure")}

	_, _, err := Dispatcher{Transport: tr}.Dispatch(context.Background(), SendRequest{Address: "1", Body: "hi"})
	be.Err(t, err, ErrSend)
	be.Err(t, err, "generic failure")

	_, _, err = Dispatcher{Transport: tr}.Dispatch(context.Background(), SendRequest{Address: "1", Body: strings.Repeat("x", 200)})
	be.Err(t, err, ErrSend)
}

func TestDispatchEmptyDivision(t *testing.T) {
	tr := &recordingTransport{divide: func(string) []string { return nil }}
	_, _, err := Dispatcher{Transport: tr}.Dispatch(context.Background(), SendRequest{Address: "1", Body: strings.Repeat("x", 161)})
	be.Err(t, err, "no segments")
	be.Equal(t, len(tr.multipart), 0)
}
