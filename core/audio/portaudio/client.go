package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"

	"github.com/gordonklaus/portaudio"
	"github.com/voxshell/voxshell-core/core/audio"
)

// Client is a capture-and-playback device backed by the default PortAudio
// stream. It exists mainly for platforms where miniaudio misbehaves.
type Client struct {
	bufferSize    int
	stream        *portaudio.Stream
	leftoverAudio []byte

	in  []int16
	out []int16
}

func NewClient(bufferSize int) (*Client, error) {
	err := portaudio.Initialize()
	if err != nil {
		log.Fatalf("Failed to initialize PortAudio: %v", err)
		return nil, err
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		log.Fatalf("Failed to open PortAudio stream: %v", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.stream.Start(); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := c.stream.Read(); err != nil {
					log.Printf("Failed to read from PortAudio stream: %v", err)
				}

				audioBuffer := bytes.Buffer{}
				binary.Write(&audioBuffer, binary.LittleEndian, c.in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	return c.stream.Stop()
}

// Play writes a chunk through the output side of the stream, blocking
// until PortAudio has accepted every full buffer.
func (c *Client) Play(ctx context.Context, chunk []byte) error {
	bufferSize := c.bufferSize * 2

	chunk = append(c.leftoverAudio, chunk...)
	for i := range len(chunk)/bufferSize + 1 {
		if ctx.Err() != nil {
			c.leftoverAudio = nil
			return ctx.Err()
		}

		if (i+1)*bufferSize > len(chunk) {
			c.leftoverAudio = make([]byte, len(chunk)-i*bufferSize)
			copy(c.leftoverAudio, chunk[i*bufferSize:])
			break
		}

		binary.Read(bytes.NewBuffer(chunk[i*bufferSize:(i+1)*bufferSize]), binary.LittleEndian, c.out)
		c.stream.Write()
	}

	return nil
}

func (c *Client) ClearBuffer() {
	c.leftoverAudio = make([]byte, 0)
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
