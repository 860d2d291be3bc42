// Package record streams captured PCM into a scratch-backed WAV file.
package record

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	SampleRate  = 16000
	BitDepth    = 16
	NumChannels = 1
)

// Source is the PCM feed the recorder drains. Chunks must be closed by
// Stop so the drain loop can terminate.
type Source interface {
	Chunks() <-chan []byte
	BytesCaptured() int64
	Stop() error
}

// Recorder encodes s16le mono PCM into a WAV file as it arrives.
type Recorder struct {
	logger *slog.Logger
	source Source
	file   *os.File
	enc    *wav.Encoder
	done   chan error
}

// Start opens an already-allocated capture file and begins draining the
// source into it. The file must be owner-only; anything looser is
// refused before a single sample is written.
func Start(logger *slog.Logger, source Source, path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	if err := ensureExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Recorder{
		logger: logger,
		source: source,
		file:   f,
		enc:    wav.NewEncoder(f, SampleRate, BitDepth, NumChannels, 1),
		done:   make(chan error, 1),
	}
	go r.drain()
	return r, nil
}

func (r *Recorder) drain() {
	var err error
	for chunk := range r.source.Chunks() {
		if werr := r.enc.Write(intBufferFromPCM(chunk)); werr != nil && err == nil {
			err = fmt.Errorf("encode wav chunk: %w", werr)
		}
	}
	r.done <- err
}

// Finish stops the source, waits for the drain loop, finalizes the WAV
// header, and syncs the file. It returns the raw byte count captured.
func (r *Recorder) Finish() (int64, error) {
	stopErr := r.source.Stop()
	drainErr := <-r.done
	encErr := r.enc.Close()
	syncErr := r.file.Sync()
	closeErr := r.file.Close()

	bytes := r.source.BytesCaptured()
	for _, err := range []error{drainErr, encErr, stopErr, syncErr, closeErr} {
		if err != nil {
			return bytes, err
		}
	}
	r.logger.Info("capture finished", "path", r.file.Name(), "bytes", bytes)
	return bytes, nil
}

// Abort stops capture and closes the file without finalizing it. The
// caller is expected to erase the scratch file afterwards.
func (r *Recorder) Abort() error {
	_ = r.source.Stop()
	<-r.done
	return r.file.Close()
}

// intBufferFromPCM reinterprets little-endian s16 bytes as encoder samples.
func intBufferFromPCM(chunk []byte) *audio.IntBuffer {
	samples := make([]int, 0, len(chunk)/2)
	for i := 0; i+1 < len(chunk); i += 2 {
		samples = append(samples, int(int16(binary.LittleEndian.Uint16(chunk[i:]))))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: NumChannels, SampleRate: SampleRate},
		SourceBitDepth: BitDepth,
		Data:           samples,
	}
}

// ensureExclusive rejects capture files readable by group or others.
func ensureExclusive(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat capture file: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return fmt.Errorf("capture file %s has permissive mode %04o", f.Name(), perm)
	}
	return nil
}
