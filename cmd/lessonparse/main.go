// Команда lessonparse разбирает текстовый или PDF-файл урока и печатает
// результат в JSON.
//
//	lessonparse -kind quiz [-o quiz.json] quiz.txt
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"numerom/internal/lessontext"
	"numerom/internal/pdf"
)

func main() {
	kindFlag := flag.String("kind", "", "тип раздела: theory, exercises, challenge, quiz")
	out := flag.String("o", "", "файл для записи результата (по умолчанию stdout)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "использование: lessonparse -kind <тип> [-o out.json] <файл>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*kindFlag, *out, flag.Args()); err != nil {
		slog.Error("lessonparse failed", "error", err)
		os.Exit(1)
	}
}

func run(kindName, out string, args []string) error {
	kind, ok := lessontext.ParseKind(kindName)
	if !ok {
		names := make([]string, 0, len(lessontext.Kinds))
		for _, k := range lessontext.Kinds {
			names = append(names, string(k))
		}
		return fmt.Errorf("unknown kind %q, expected one of %s", kindName, strings.Join(names, ", "))
	}
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one input file, got %d", len(args))
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	text, err := pdf.ReadLessonText(args[0], f)
	if err != nil {
		return err
	}

	res := lessontext.Parse(kind, text)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	slog.Info("lesson text parsed", "file", args[0], "kind", kind, "items", res.Count())

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
