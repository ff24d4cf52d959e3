package logger

import "github.com/rs/zerolog"

// Reset tears down the singleton so that the next Init call rebuilds it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	instance = nil
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}
