package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
	"github.com/insightdelivered/cfe-receipt-reader/internal/parser"
)

func textInput(name, text string) Input {
	return Input{
		Name: name,
		Acquire: func(context.Context) (models.DocumentText, error) {
			return models.DocumentFromText(name, text), nil
		},
	}
}

func failingInput(name string) Input {
	return Input{
		Name: name,
		Acquire: func(context.Context) (models.DocumentText, error) {
			return models.DocumentText{}, errors.New("corrupt file")
		},
	}
}

const sessionDocText = `NO. DE SERVICIO: 202100300330
PERIODO FACTURADO: 07 NOV 25 - 08 ENE 26
Total periodo: 150
TOTAL A PAGAR: $272.00
VALDEZ MORA JULIA
45 AV JUAREZ
`

func TestNewSessionValidatesQueue(t *testing.T) {
	ext := parser.NewExtractor(nil)
	log := zerolog.Nop()

	_, err := NewSession(ext, []Input{textInput("solo.pdf", "x")}, log)
	assert.Error(t, err, "single document is not a batch")

	big := make([]Input, MaxBatchSize+1)
	for i := range big {
		big[i] = textInput(fmt.Sprintf("doc%02d.pdf", i), "x")
	}
	_, err = NewSession(ext, big, log)
	assert.Error(t, err, "oversized queue")

	_, err = NewSession(ext, []Input{textInput("a.pdf", "x"), textInput("a.pdf", "y")}, log)
	assert.Error(t, err, "duplicate names")

	_, err = NewSession(ext, []Input{textInput("a.pdf", "x"), textInput("b.pdf", "y")}, log)
	assert.NoError(t, err)
}

func TestSessionRunProcessesInOrder(t *testing.T) {
	inputs := []Input{
		textInput("uno.pdf", sessionDocText),
		failingInput("dos.pdf"),
		textInput("tres.pdf", sessionDocText),
	}
	s, err := NewSession(parser.NewExtractor(nil), inputs, zerolog.Nop())
	require.NoError(t, err)

	var events []string
	s.Progress = func(index, total int, name string, status Status) {
		assert.Equal(t, len(inputs), total)
		events = append(events, name+":"+string(status))
	}

	receipts, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, []string{
		"uno.pdf:processing", "uno.pdf:done",
		"dos.pdf:processing", "dos.pdf:error",
		"tres.pdf:processing", "tres.pdf:done",
	}, events)

	assert.Equal(t, "VALDEZ MORA JULIA", receipts[0].Titleholder)
	assert.Equal(t, 150, receipts[0].KWh)
	assert.Equal(t, "tres.pdf", receipts[2].SourceName)
}

func TestSessionRunFallsBackToFileName(t *testing.T) {
	// No titleholder pattern matches in this text, so the row label comes
	// from the file name with its extension stripped.
	anonymous := "NO. DE SERVICIO: 202100300330\nTotal periodo: 150\n"
	inputs := []Input{
		textInput("recibo-casa.pdf", anonymous),
		textInput("uno.pdf", sessionDocText),
	}
	s, err := NewSession(parser.NewExtractor(nil), inputs, zerolog.Nop())
	require.NoError(t, err)

	receipts, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recibo-casa", receipts[0].Titleholder)
	assert.Equal(t, "VALDEZ MORA JULIA", receipts[1].Titleholder, "extracted name is never overridden")
}

func TestSessionRunRecordsPlaceholder(t *testing.T) {
	inputs := []Input{
		textInput("uno.pdf", sessionDocText),
		failingInput("dos.pdf"),
	}
	s, err := NewSession(parser.NewExtractor(nil), inputs, zerolog.Nop())
	require.NoError(t, err)

	receipts, err := s.Run(context.Background())
	require.NoError(t, err)

	ph := receipts[1]
	assert.Equal(t, "dos.pdf", ph.SourceName)
	assert.Equal(t, "Error al leer", ph.Titleholder)
	assert.Equal(t, "-", ph.ServiceID)
	assert.Equal(t, "-", ph.PeriodText)
	assert.Equal(t, "-", ph.DueDate)
	assert.Equal(t, models.TierUnassigned, ph.Tariff)
	assert.Equal(t, models.Cents(0), ph.Total)
	assert.Equal(t, 0, ph.KWh)
	assert.Equal(t, "corrupt file", ph.Err)
}

func TestSessionRunHonorsCancellation(t *testing.T) {
	inputs := []Input{
		textInput("uno.pdf", sessionDocText),
		textInput("dos.pdf", sessionDocText),
	}
	s, err := NewSession(parser.NewExtractor(nil), inputs, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
