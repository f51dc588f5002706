package broker

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	domain "refdatasync/internal/domain/entity/refdata"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel) *Publisher {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := newPublisher(ch, "refdata.events", log)
	p.now = func() time.Time { return time.Date(2021, 3, 26, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestPublishRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)
	ctx := context.Background()

	if err := p.PublishAssetInserted(ctx, "run-1", domain.InsertedAsset{Code: "usd", Name: "US Dollar", Type: domain.Fiat, TypeID: 1}); err != nil {
		t.Fatalf("PublishAssetInserted: %v", err)
	}
	if err := p.PublishSymbolInserted(ctx, "run-1", "FTX", domain.InsertedSymbol{PairCode: "BTC/USD", Symbol: "btc-usd", Type: domain.SpotType}); err != nil {
		t.Fatalf("PublishSymbolInserted: %v", err)
	}
	if err := p.PublishSymbolStateChanged(ctx, "run-1", "FTX", domain.Transition{InstrumentID: "9", From: 1, To: 2, Label: "delisted-expired"}); err != nil {
		t.Fatalf("PublishSymbolStateChanged: %v", err)
	}

	wantKeys := []string{"asset.inserted", "symbol.inserted", "symbol.state_changed"}
	if len(ch.sent) != len(wantKeys) {
		t.Fatalf("sent = %d messages", len(ch.sent))
	}
	for i, key := range wantKeys {
		if ch.sent[i].key != key || ch.sent[i].exchange != "refdata.events" {
			t.Errorf("message %d routed to %s/%s", i, ch.sent[i].exchange, ch.sent[i].key)
		}
		if ch.sent[i].msg.DeliveryMode != amqp.Persistent {
			t.Errorf("message %d not persistent", i)
		}
	}

	var event Event
	if err := json.Unmarshal(ch.sent[1].msg.Body, &event); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if event.Symbol == nil || event.Symbol.Symbol != "btc-usd" || event.Exchange != "FTX" || event.Asset != nil {
		t.Fatalf("event = %+v", event)
	}

	p.Close()
	if !ch.closed {
		t.Fatal("channel not closed")
	}
}
