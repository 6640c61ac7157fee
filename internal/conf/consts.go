// Package conf implements the Settings Carrier (§4.12): an immutable
// snapshot of configuration the supervisor hands to each worker at start.
package conf

import "time"

// Fixed parameters of the script-pointer pipeline's audio path (§3, §4.1).
const (
	AudioSampleRate = 44100 // Hz
	AudioBlockSize  = 2048  // samples per block
	AudioWindowSecs = 10    // rolling window duration once warm
)

// Script chunking parameters (§3 ScriptChunk, §4.2).
const (
	ChunkSize   = 10 // K
	ChunkStride = 5  // K - overlap, overlap = 5
)

// Windowed matcher parameters (§4.3).
const (
	MatcherWindowSize        = 10 // W
	MatcherMaxFailedAttempts = 5
	MatcherLowerThreshold    = 50 // score > 50 adjusts the window
	MatcherUpperThreshold    = 60 // score >= 60 resets failure counters
	GlobalRescanMinMatches   = 4  // windows need count >= 4 at >= 60 to qualify
)

// Track history and Re-ID parameters (§4.5, §4.6, §4.8).
const (
	TrackHistoryCapacity  = 10
	ReIDVectorDimension   = 512
	CertainMatchThreshold = 15.0
	UncertainMatchThreshold = 20.0
)

// DMX / Art-Net parameters (§4.13, §6).
const (
	DMXUniverseSize  = 512
	DefaultPanOffset = 18
	DefaultTiltOffset = 20
	DefaultShutterOffset = 1
	DefaultDimmerOffset = 2
	DefaultArtNetTick = 40 // ms
)

// Pipeline tick cadences (§4.4, §4.9).
const (
	// ScriptPointerTick is the snapshot-transcribe-match cadence; ASR
	// latency dominates, so this is a target, not a guarantee.
	ScriptPointerTick = time.Second

	// LampTick and LampFreshness are the C9 loop's fixed 100ms cadence and
	// the staleness window past which a RealWorldPoint is held rather than
	// sent.
	LampTick      = 100 * time.Millisecond
	LampFreshness = time.Second
)
