// Package telemetry holds the ambient concerns every process shares:
// structured logging and Prometheus metrics. Neither package
// participates in matching or trading logic; both only observe it.
package telemetry

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a *zap.SugaredLogger writing to
// `<process>_<role>_<id>.log` (spec.md §201: "Logs are append-only
// text files named `<process>_<role>_<id>.log`") as well as stderr, so
// a process running interactively still shows its own output.
// Grounded on zap's own NewProductionConfig JSON-encoded, leveled core
// (the only logging library the pack's example repos import — see
// other_examples/Aidin1998-finalex__engine.go, which takes a
// *zap.SugaredLogger everywhere but never shows how one gets built,
// so the encoder/level choice below follows zap's own documented
// production defaults).
func NewLogger(process, role string, id int) (*zap.SugaredLogger, error) {
	filename := fmt.Sprintf("%s_%s_%d.log", process, role, id)

	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	fileWriter, _, err := zap.Open(filename)
	if err != nil {
		return nil, err
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoder := zapcore.NewConsoleEncoder(consoleConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, fileWriter, zapcore.InfoLevel),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapcore.InfoLevel),
	)

	logger := zap.New(core).With(zap.String("process", process), zap.String("role", role), zap.Int("id", id))
	return logger.Sugar(), nil
}
