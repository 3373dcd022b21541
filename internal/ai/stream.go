package ai

import (
	"context"
	"iter"
)

// ChunkStream is a lazy, single-use sequence of response chunks. A non-nil
// error ends the sequence.
type ChunkStream = iter.Seq2[ResponseChunk, error]

const DefaultStreamBuffer = 2

type ChunkResult struct {
	Chunk ResponseChunk
	Err   error
}

func TextChunk(text string, finished bool) ResponseChunk {
	return ResponseChunk{Text: &text, Finished: finished}
}

func FinishedChunk() ResponseChunk {
	return ResponseChunk{Finished: true}
}

// Forward drains stream on its own goroutine into a channel of the given
// capacity. It stops after the first finished chunk or error, and as soon as
// ctx is cancelled, which also stops further reads from the backend.
func Forward(ctx context.Context, stream ChunkStream, size int) <-chan ChunkResult {
	if size <= 0 {
		size = DefaultStreamBuffer
	}
	out := make(chan ChunkResult, size)
	go func() {
		defer close(out)
		for chunk, err := range stream {
			select {
			case out <- ChunkResult{Chunk: chunk, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil || chunk.Finished {
				return
			}
		}
	}()
	return out
}
