// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingress

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/writer"
)

const (
	replyTopicHeader = "reply-to"
	requestIDHeader  = "request-id"
)

// KafkaConfig describes the Kafka ingress topology.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// KafkaSource consumes point bursts from a Kafka topic. The record key names
// the origin; records carrying a reply-to header get their Success/Failure
// response produced onto that topic. Points are idempotent by
// (origin, source, timestamp), so redelivery after a crash is harmless.
type KafkaSource struct {
	client     *kgo.Client
	dispatcher *writer.Dispatcher
	logger     *slog.Logger
}

// NewKafkaSource connects the consumer group.
func NewKafkaSource(cfg KafkaConfig, d *writer.Dispatcher, logger *slog.Logger) (*KafkaSource, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumerGroup(cfg.Group),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka ingress client: %w", err)
	}
	return &KafkaSource{client: client, dispatcher: d, logger: logger}, nil
}

// Run polls and dispatches until ctx is canceled.
func (k *KafkaSource) Run(ctx context.Context) error {
	defer k.client.Close()
	for {
		fetches := k.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			k.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			k.dispatch(ctx, rec)
		})
	}
}

func (k *KafkaSource) dispatch(ctx context.Context, rec *kgo.Record) {
	var replyTopic string
	var requestID uint64
	for _, h := range rec.Headers {
		switch h.Key {
		case replyTopicHeader:
			replyTopic = string(h.Value)
		case requestIDHeader:
			if len(h.Value) == 8 {
				requestID = binary.LittleEndian.Uint64(h.Value)
			}
		}
	}

	reply := writer.Reply(func(error) {})
	if replyTopic != "" {
		key := append([]byte(nil), rec.Key...)
		reply = func(result error) {
			k.client.Produce(ctx, &kgo.Record{
				Topic: replyTopic,
				Key:   key,
				Value: encodeResponse(requestID, result),
			}, func(_ *kgo.Record, err error) {
				if err != nil {
					k.logger.Error("kafka reply produce failed", "topic", replyTopic, "error", err)
				}
			})
		}
	}

	k.dispatcher.Dispatch(ctx, &writer.Request{
		Origin:  origin.Tidy(string(rec.Key)),
		Payload: append([]byte(nil), rec.Value...),
		Reply:   reply,
	})
}
