package tts

import "context"

type Provider interface {
	// Synthesize renders spoken audio (MP3) for the given text.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	Close() error
}
