package ledgersync

import (
	"context"
	"encoding/json"
	"github.com/everFinance/ledgersync/schema"
	"github.com/segmentio/kafka-go"
	"sync"
	"time"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:         kafka.TCP(uri),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(body []byte) error {
	err := kw.w.WriteMessages(
		context.Background(),
		kafka.Message{
			Value: body,
		},
	)
	return err
}

func (kw *KWriter) Close() {
	kw.w.Close()
}

type KMsgWriter interface {
	Write(body []byte) error
	Close()
}

func NewKWriters(uri string) (map[string]KMsgWriter, error) {
	writers := make(map[string]KMsgWriter)
	for _, topic := range []string{schema.BalanceTopic, schema.HeightTopic, schema.TransactionTopic} {
		w, err := NewKWriter(topic, uri)
		if err != nil {
			return nil, err
		}
		writers[topic] = w
	}
	return writers, nil
}

type kMsg struct {
	topic string
	body  []byte
}

// KafkaNotifier publishes change notifications of one account as json
// messages. Publishing is asynchronous; when the queue is full messages are dropped.
type KafkaNotifier struct {
	account string
	writers map[string]KMsgWriter
	queue   chan kMsg
	closed  bool
	lock    sync.RWMutex // guards closed and sends on queue
	wg      sync.WaitGroup
	once    sync.Once
}

func NewKafkaNotifier(uri, account string) (*KafkaNotifier, error) {
	writers, err := NewKWriters(uri)
	if err != nil {
		return nil, err
	}
	return newKafkaNotifier(account, writers), nil
}

func newKafkaNotifier(account string, writers map[string]KMsgWriter) *KafkaNotifier {
	k := &KafkaNotifier{
		account: account,
		writers: writers,
		queue:   make(chan kMsg, 1024),
	}
	k.wg.Add(1)
	go k.run()
	return k
}

func (k *KafkaNotifier) run() {
	defer k.wg.Done()
	for msg := range k.queue {
		w, ok := k.writers[msg.topic]
		if !ok {
			continue
		}
		if err := w.Write(msg.body); err != nil {
			log.Error("kafka write message failed", "topic", msg.topic, "err", err)
		}
	}
}

func (k *KafkaNotifier) publish(topic string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error("json.Marshal(kafka msg)", "err", err, "topic", topic)
		return
	}
	k.lock.RLock()
	defer k.lock.RUnlock()
	if k.closed {
		log.Warn("kafka notifier closed, drop message", "topic", topic)
		return
	}
	select {
	case k.queue <- kMsg{topic: topic, body: body}:
	default:
		log.Warn("kafka queue full, drop message", "topic", topic)
	}
}

func (k *KafkaNotifier) OnBalanceChanged(currencyCode, amount string) {
	k.publish(schema.BalanceTopic, schema.KBalance{Account: k.account, CurrencyCode: currencyCode, Balance: amount})
}

func (k *KafkaNotifier) OnBlockHeightChanged(height int64) {
	k.publish(schema.HeightTopic, schema.KHeight{Account: k.account, BlockHeight: height})
}

func (k *KafkaNotifier) OnTransactionsChanged(txs []schema.Transaction) {
	k.publish(schema.TransactionTopic, schema.KTransactions{Account: k.account, Transactions: txs})
}

// Close flushes the queued messages and closes the writers. Later
// notifications are dropped.
func (k *KafkaNotifier) Close() {
	k.once.Do(func() {
		k.lock.Lock()
		k.closed = true
		close(k.queue)
		k.lock.Unlock()
		k.wg.Wait()
		for _, w := range k.writers {
			w.Close()
		}
	})
}
