package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/gamekeys-shop/internal/lib/logger/handlers/slogpretty"
)

// окружения из конфига
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const appName = "gamekeys-shop"

// SetupLogger инициализирует логгер в зависимости от переданного окружения:
// local - цветной вывод (pretty), dev - JSON с debug и источником, prod и прочее - JSON с info
func SetupLogger(env string) *slog.Logger {
	return New(env, os.Stdout)
}

// New - то же, что SetupLogger, но с произвольным выводом
func New(env string, out io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		return prettyLogger(out)
	case EnvDev:
		return jsonLogger(out, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}, env)
	default:
		return jsonLogger(out, &slog.HandlerOptions{Level: slog.LevelInfo}, env)
	}
}

func jsonLogger(out io.Writer, opts *slog.HandlerOptions, env string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(out, opts)).With(
		slog.String("app", appName),
		slog.String("env", env),
	)
}

func prettyLogger(out io.Writer) *slog.Logger {
	color.NoColor = false

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}
	return slog.New(opts.NewPrettyHandler(out))
}
