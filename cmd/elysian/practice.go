package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elysian-app/elysian/internal/audio"
	"github.com/elysian-app/elysian/internal/config"
	"github.com/elysian-app/elysian/internal/history"
	"github.com/elysian-app/elysian/internal/i18n"
	"github.com/elysian-app/elysian/internal/model"
	"github.com/elysian-app/elysian/internal/practice"
	"github.com/elysian-app/elysian/internal/vocab"
)

func speakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Pronunciation practice",
		RunE:  runSpeak,
	}
	f := cmd.Flags()
	f.String("record-cmd", "", "Capture command writing audio to stdout (sox, arecord, ffmpeg, ...)")
	f.StringSlice("record-args", nil, "Arguments for the capture command")
	f.String("record-mime", "audio/wav", "MIME type of the captured audio")
	return cmd
}

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listening comprehension practice",
		RunE:  runListen,
	}
	f := cmd.Flags()
	f.Float64("speed", 1.0, "Playback rate for the simulated audio")
	f.Bool("lenient", false, "Unlock the questions before playback finishes")
	return cmd
}

func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Reading comprehension practice",
		RunE:  runRead,
	}
	cmd.Flags().String("article", "", "Read a specific article by id")
	return cmd
}

func runSpeak(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctrl := practice.NewController(s.api.PracticeBackend(), practice.Options{
		Module:   model.ModuleSpeak,
		Recorder: newRecorder(s.cfg),
	})
	defer ctrl.Close()
	return newPracticeUI(s, ctrl, model.ModuleSpeak).run()
}

func runListen(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctrl := practice.NewController(s.api.PracticeBackend(), practice.Options{
		Module:  model.ModuleListen,
		Machine: practice.Config{Lenient: s.cfg.Lenient},
		Speed:   s.cfg.Speed,
	})
	defer ctrl.Close()
	return newPracticeUI(s, ctrl, model.ModuleListen).run()
}

func runRead(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctrl := practice.NewController(s.api.PracticeBackend(), practice.Options{
		Module:    model.ModuleRead,
		ContentID: s.cfg.String("article"),
	})
	defer ctrl.Close()

	ui := newPracticeUI(s, ctrl, model.ModuleRead)
	words, closeWords, err := s.openVocab()
	if err != nil {
		slog.Warn("vocabulary lookups unavailable", "error", err)
	} else {
		ui.words = words
		defer closeWords()
	}
	return ui.run()
}

// newRecorder picks the microphone backend: the configured external
// command, or a canned clip when none is set. The practice service
// transcribes simulated audio, so the canned clip still grades.
func newRecorder(cfg *config.Config) audio.Recorder {
	if cfg.RecordCommand != "" {
		return &audio.CommandRecorder{Command: cfg.RecordCommand, Args: cfg.RecordArgs, MIME: cfg.RecordMIME}
	}
	return &audio.BufferRecorder{Artifact: audio.Artifact{
		Data:     []byte("simulated-capture"),
		MIME:     "audio/wav",
		Duration: 2 * time.Second,
	}}
}

// practiceUI runs the terminal loop for one practice module: fetch,
// present, capture, submit, result, then retry, next or quit.
type practiceUI struct {
	s      *session
	ctrl   *practice.Controller
	module model.Module
	ctx    context.Context
	p      *prompter
	hist   *history.Store // nil when the local log is unavailable
	words  *vocab.Service // read: definition lookups
}

func newPracticeUI(s *session, ctrl *practice.Controller, module model.Module) *practiceUI {
	ui := &practiceUI{s: s, ctrl: ctrl, module: module, ctx: s.ctx(), p: newPrompter()}
	hist, err := s.openHistory()
	if err != nil {
		slog.Warn("practice history unavailable", "error", err)
	} else {
		ui.hist = hist
	}
	return ui
}

func (ui *practiceUI) run() error {
	if ui.hist != nil {
		defer ui.hist.Close()
	}
	for {
		if err := ui.ctrl.Load(ui.ctx); err != nil {
			return err
		}
		ui.p.println(i18n.T(ui.ctx, "Loading"))
		again, err := ui.cycle()
		if err != nil || !again {
			return err
		}
	}
}

// cycle runs one exercise from fetch to the retry/next/quit decision
// and reports whether another exercise should load.
func (ui *practiceUI) cycle() (bool, error) {
	snap, err := ui.await(practice.PhasePresenting, practice.PhaseError)
	if err != nil {
		return false, err
	}
	if snap.Phase == practice.PhaseError {
		return ui.confirmFetchRetry(snap)
	}

	for {
		ui.present(snap)

		quit, err := ui.capture(snap)
		if quit || err != nil {
			return false, err
		}

		res, quit, err := ui.awaitResult()
		if quit || err != nil {
			return false, err
		}
		ui.renderResult(res)
		ui.recordHistory(res)

		choice, err := ui.p.line(i18n.T(ui.ctx, "RetryHint") + "\n> ")
		if err != nil {
			return false, eofOK(err)
		}
		switch strings.ToLower(choice) {
		case "retry":
			if err := ui.ctrl.Retry(); err != nil {
				return false, err
			}
			snap = ui.ctrl.Snapshot()
		case "next":
			return true, nil
		default:
			return false, nil
		}
	}
}

// await blocks until the flow reaches one of the given phases.
func (ui *practiceUI) await(phases ...practice.Phase) (practice.Snapshot, error) {
	matches := func(snap practice.Snapshot) bool {
		for _, ph := range phases {
			if snap.Phase == ph {
				return true
			}
		}
		return false
	}
	if snap := ui.ctrl.Snapshot(); matches(snap) {
		return snap, nil
	}
	for {
		select {
		case snap := <-ui.ctrl.Updates():
			if matches(snap) {
				return snap, nil
			}
		case <-ui.ctx.Done():
			return practice.Snapshot{}, ui.ctx.Err()
		}
	}
}

func (ui *practiceUI) confirmFetchRetry(snap practice.Snapshot) (bool, error) {
	ui.p.println(i18n.T(ui.ctx, "FetchFailed"))
	if snap.Failure != nil {
		ui.p.println(snap.Failure.Error())
	}
	again, err := ui.p.confirm(i18n.T(ui.ctx, "TryAgain"))
	if err != nil {
		return false, eofOK(err)
	}
	return again, nil
}

func (ui *practiceUI) present(snap practice.Snapshot) {
	ex := snap.Exercise
	ui.p.println()
	switch ui.module {
	case model.ModuleSpeak:
		ui.p.printf("[%s] %s\n", header(string(ex.Level), ex.Kind), i18n.T(ui.ctx, "SpeakInstruction"))
		ui.p.printf("\n    %s\n\n", ex.Content)
	case model.ModuleListen:
		ui.p.printf("%s (%s)\n", ex.Title, header(string(ex.Level), ex.Topic))
		if ex.Description != "" {
			ui.p.println(ex.Description)
		}
		ui.p.println(i18n.Tp(ui.ctx, "ListenIntro", len(ex.Questions)))
		if !ui.s.cfg.Lenient {
			ui.p.println(i18n.T(ui.ctx, "ListenLocked"))
		}
	case model.ModuleRead:
		ui.p.printf("%s (%s)\n", ex.Title, header(string(ex.Level), ex.Topic))
		ui.p.println()
		ui.p.println(ex.Content)
		if len(ex.Vocabulary) > 0 {
			ui.p.println()
			ui.p.println(i18n.Td(ui.ctx, "VocabHighlights", map[string]any{"Words": strings.Join(ex.Vocabulary, ", ")}))
		}
	}
}

// header joins the non-empty parts of an exercise byline.
func header(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}

func (ui *practiceUI) capture(snap practice.Snapshot) (bool, error) {
	switch ui.module {
	case model.ModuleSpeak:
		return ui.captureSpeak()
	case model.ModuleListen:
		return ui.captureListen(snap)
	default:
		return ui.captureRead(snap)
	}
}

func (ui *practiceUI) captureSpeak() (bool, error) {
	text, err := ui.p.line(i18n.T(ui.ctx, "RecordPrompt"))
	if err != nil {
		return true, eofOK(err)
	}
	if text == "quit" {
		return true, nil
	}
	if err := ui.ctrl.StartCapture(ui.ctx); err != nil {
		return false, err
	}
	if _, err := ui.p.line(i18n.T(ui.ctx, "RecordingHint")); err != nil {
		return true, eofOK(err)
	}
	if err := ui.ctrl.StopCapture(); err != nil {
		return false, err
	}
	return false, ui.ctrl.Submit(ui.ctx)
}

func (ui *practiceUI) captureListen(snap practice.Snapshot) (bool, error) {
	if !snap.PlaybackDone && !ui.s.cfg.Lenient {
		if err := ui.watchPlayback(snap.Exercise); err != nil {
			return false, err
		}
	}
	if err := ui.ctrl.StartCapture(ui.ctx); err != nil {
		return false, err
	}
	return ui.askQuestions(snap.Exercise)
}

// watchPlayback shows playback progress until the simulated audio
// finishes.
func (ui *practiceUI) watchPlayback(ex *model.Exercise) error {
	dur := time.Duration(ex.Duration) * time.Second
	done := make(chan error, 1)
	go func() { done <- ui.ctrl.AwaitPlayback(ui.ctx) }()

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case err := <-done:
			ui.p.printf("\r%s\n", i18n.T(ui.ctx, "PlaybackDone"))
			return err
		case <-t.C:
			snap := ui.ctrl.Snapshot()
			ui.p.printf("\r%s", i18n.Td(ui.ctx, "PlaybackProgress", map[string]any{
				"Position": clock(snap.Position),
				"Duration": clock(dur),
			}))
		}
	}
}

// clock formats a duration as m:ss.
func clock(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func (ui *practiceUI) captureRead(snap practice.Snapshot) (bool, error) {
	ui.p.println(i18n.T(ui.ctx, "ReadCommands"))
	for {
		text, err := ui.p.line("> ")
		if err != nil {
			return true, eofOK(err)
		}
		switch {
		case text == "quit":
			return true, nil
		case text == "start" || text == "":
			if err := ui.ctrl.StartCapture(ui.ctx); err != nil {
				return false, err
			}
			return ui.askQuestions(snap.Exercise)
		case strings.HasPrefix(text, "look "):
			ui.lookup(strings.TrimPrefix(text, "look "))
		default:
			ui.p.println(i18n.T(ui.ctx, "ReadCommands"))
		}
	}
}

// lookup counts the word on the attempt and prints its definition.
func (ui *practiceUI) lookup(word string) {
	if err := ui.ctrl.Lookup(word); err != nil {
		slog.Debug("lookup not counted", "word", word, "error", err)
	}
	if ui.words == nil {
		return
	}
	entry, err := ui.words.Lookup(ui.ctx, word)
	if errors.Is(err, vocab.ErrNotFound) {
		ui.p.println(i18n.Td(ui.ctx, "WordNotFound", map[string]any{"Word": vocab.Normalize(word)}))
		return
	}
	if err != nil {
		slog.Warn("definition lookup failed", "word", word, "error", err)
		return
	}
	if entry.Phonetic != "" {
		ui.p.printf("%s %s: %s\n", entry.Word, entry.Phonetic, entry.Primary())
	} else {
		ui.p.printf("%s: %s\n", entry.Word, entry.Primary())
	}
}

// askQuestions walks the comprehension questions, then re-asks any left
// blank until the completeness gate clears.
func (ui *practiceUI) askQuestions(ex *model.Exercise) (bool, error) {
	for i := range ex.Questions {
		quit, err := ui.askOne(ex, i)
		if quit || err != nil {
			return quit, err
		}
	}
	for {
		snap := ui.ctrl.Snapshot()
		if snap.Missing == 0 {
			break
		}
		ui.p.println(i18n.Tp(ui.ctx, "AnswersRemaining", snap.Missing))
		for i := range ex.Questions {
			if strings.TrimSpace(snap.Answers[i]) != "" {
				continue
			}
			quit, err := ui.askOne(ex, i)
			if quit || err != nil {
				return quit, err
			}
		}
	}
	return false, ui.ctrl.Submit(ui.ctx)
}

func (ui *practiceUI) askOne(ex *model.Exercise, i int) (bool, error) {
	q := ex.Questions[i]
	ui.p.printf("\n%d. %s\n", i+1, q.Prompt)
	for j, opt := range q.Options {
		ui.p.printf("   %c) %s\n", 'a'+j, opt)
	}
	answer, err := ui.p.line(i18n.T(ui.ctx, "YourAnswer") + ": ")
	if err != nil {
		return true, eofOK(err)
	}
	if answer == "quit" {
		return true, nil
	}
	if q.Kind == model.QuestionMultipleChoice && len(answer) == 1 {
		if k := int(strings.ToLower(answer)[0] - 'a'); k >= 0 && k < len(q.Options) {
			answer = q.Options[k]
		}
	}
	if err := ui.ctrl.Answer(i, answer); err != nil {
		return false, err
	}
	return false, nil
}

// awaitResult waits for grading, offering resubmission after a submit
// failure.
func (ui *practiceUI) awaitResult() (practice.Snapshot, bool, error) {
	for {
		snap, err := ui.await(practice.PhaseResult, practice.PhaseError)
		if err != nil {
			return snap, false, err
		}
		if snap.Phase == practice.PhaseResult {
			return snap, false, nil
		}
		ui.p.println(i18n.T(ui.ctx, "SubmitFailed"))
		if snap.Failure != nil {
			ui.p.println(snap.Failure.Error())
		}
		again, err := ui.p.confirm(i18n.T(ui.ctx, "TryAgain"))
		if err != nil {
			return snap, true, eofOK(err)
		}
		if !again {
			return snap, true, nil
		}
		if err := ui.ctrl.Submit(ui.ctx); err != nil {
			return snap, false, err
		}
	}
}

func (ui *practiceUI) renderResult(snap practice.Snapshot) {
	res := snap.Result
	ui.p.println()
	switch ui.module {
	case model.ModuleSpeak:
		ui.p.println(i18n.Td(ui.ctx, "PronunciationLine", map[string]any{"Score": fmt.Sprintf("%.0f", res.Pronunciation)}))
		if res.Intonation != nil {
			ui.p.println(i18n.Td(ui.ctx, "IntonationLine", map[string]any{"Score": fmt.Sprintf("%.0f", *res.Intonation)}))
		}
	default:
		ui.p.println(i18n.Td(ui.ctx, "ScoreLine", map[string]any{"Score": fmt.Sprintf("%.0f", res.Score)}))
	}
	if ui.module == model.ModuleRead && res.ReadingSpeed > 0 {
		ui.p.println(i18n.Td(ui.ctx, "ReadingSpeedLine", map[string]any{"WPM": fmt.Sprintf("%.0f", res.ReadingSpeed)}))
	}

	for _, d := range res.Details {
		mark := "✓"
		if !d.Correct {
			mark = "✗"
		}
		ui.p.printf("%s %s\n", mark, d.Question)
		if !d.Correct {
			ui.p.printf("  %s\n", i18n.Td(ui.ctx, "Incorrect", map[string]any{"Answer": d.CorrectAnswer}))
		}
	}
	if ui.module == model.ModuleRead && res.Vocabulary != nil && res.Vocabulary.WordsLookedUp > 0 {
		ui.p.println(i18n.Tp(ui.ctx, "LookupsSummary", res.Vocabulary.WordsLookedUp))
	}
	if res.Feedback != "" {
		ui.p.println(res.Feedback)
	}
	ui.p.println(i18n.Td(ui.ctx, "XPEarned", map[string]any{"XP": res.XPEarned}))
	if res.LevelUp {
		ui.p.println(i18n.T(ui.ctx, "LevelUp"))
	}
}

func (ui *practiceUI) recordHistory(snap practice.Snapshot) {
	if ui.hist == nil || snap.Exercise == nil || snap.Result == nil {
		return
	}
	if _, err := ui.hist.Record(history.FromResult(snap.Exercise, snap.Result, time.Now())); err != nil {
		slog.Warn("could not record attempt", "error", err)
	}
}

// eofOK treats a closed stdin as a normal quit.
func eofOK(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
