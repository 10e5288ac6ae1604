package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/intervuehq/intervue/internal/providers/stt"
	"github.com/intervuehq/intervue/internal/services"
)

// AnswerWorkerPool consumes spoken answers off a Redis stream, transcribes
// them, and pushes each transcript through the interview state machine. Per
// ledger ordering rules the session service serializes concurrent answers, so
// workers can safely overlap across sessions.
type AnswerWorkerPool struct {
	Redis    *redis.Client
	Sessions services.SessionService
	STT      stt.Provider

	NumWorkers int
	Logger     *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AnswerWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil || p.STT == nil {
		return errors.New("AnswerWorkerPool missing dependency: Redis/Sessions/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = "answers:stream"
	}
	if p.Group == "" {
		p.Group = "answer-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnswerWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func normalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", "en", "en-US":
		return "en-US"
	default:
		return v
	}
}

func (p *AnswerWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	if sessionID == "" {
		return
	}
	isLast := getStr("is_last") == "1"
	language := normalizeLanguage(getStr("language"))

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	eventsCh := "session:" + sessionID + ":events"

	b64 := getStr("audio_base64")
	if b64 == "" {
		return
	}
	if i := strings.Index(b64, ","); i >= 0 {
		b64 = b64[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		p.publish(ctx, eventsCh, map[string]any{"type": "error", "message": "invalid audio_base64"})
		return
	}

	text, conf, err := p.STT.Transcribe(ctx, audio, language)
	if err != nil || strings.TrimSpace(text) == "" {
		// A transcription failure is an empty transcript, never a dead
		// interview: the client is told to repeat the answer.
		if err != nil {
			log.WithError(err).Error("stt failed")
		}
		p.publish(ctx, eventsCh, map[string]any{"type": "transcript_empty"})
		return
	}

	p.publish(ctx, eventsCh, map[string]any{
		"type":       "transcript",
		"text":       text,
		"confidence": conf,
	})

	result, err := p.Sessions.SubmitAnswer(ctx, sessionID, text, isLast)
	if err != nil {
		log.WithError(err).Error("submit answer failed")
		p.publish(ctx, eventsCh, map[string]any{"type": "error", "message": "failed to submit answer"})
		return
	}

	if result.Completion != nil {
		p.publish(ctx, eventsCh, map[string]any{
			"type":          "completed",
			"report_id":     result.Completion.ReportID,
			"overall_score": result.Completion.OverallScore,
		})
		return
	}
	p.publish(ctx, eventsCh, map[string]any{
		"type":     "next_question",
		"question": result.NextQuestion,
	})
}

func (p *AnswerWorkerPool) publish(ctx context.Context, channel string, payload map[string]any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = p.Redis.Publish(ctx, channel, string(b)).Err()
}
