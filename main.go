package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"git.lost.host/meutraa/musicblocks/internal/blocks"
	"git.lost.host/meutraa/musicblocks/internal/config"
	"git.lost.host/meutraa/musicblocks/internal/engine"
	"git.lost.host/meutraa/musicblocks/internal/game"
	"git.lost.host/meutraa/musicblocks/internal/level"
	"git.lost.host/meutraa/musicblocks/internal/pitch"
	"git.lost.host/meutraa/musicblocks/internal/render"
	"git.lost.host/meutraa/musicblocks/internal/score"
	"git.lost.host/meutraa/musicblocks/internal/theme"
	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	kingpin.Parse()

	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.DefaultRenderer{}
	var th theme.Theme = &theme.DefaultTheme{}
	var psr level.Parser = &level.DefaultParser{}
	var recorder score.Recorder = &score.DefaultRecorder{}

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}()

	var mp3File, ogg string
	var levelFiles []string

	if err := filepath.Walk(*config.Directory, func(p string, info os.FileInfo, err error) error {
		switch path.Ext(info.Name()) {
		case ".mp3":
			mp3File = p
		case ".ogg":
			ogg = p
		case ".json":
			levelFiles = append(levelFiles, p)
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk level directory: %w", err)
	}

	if len(levelFiles) == 0 {
		return errors.New("unable to find a .json level file in given directory")
	}

	levels := make([]*game.Level, 0, len(levelFiles))
	for _, f := range levelFiles {
		l, err := psr.Parse(f)
		if nil != err {
			return err
		}
		if *config.Tolerance > 0 {
			l.Accuracy.ToleranceCents = *config.Tolerance
		}
		levels = append(levels, l)
	}

	if err := recorder.Init(); nil != err {
		return fmt.Errorf("unable to open results database: %w", err)
	}
	defer recorder.Deinit()

	// Level selection
	for i, l := range levels {
		best := ""
		if entry, ok := score.Best(recorder.Load(l)); ok {
			best = fmt.Sprintf("  best %v", entry.Result.Score)
		}
		fmt.Printf("%2v) %-20v %v%v\n", i, l.Name, l.Objective.Type, best)
	}
	key := <-keyChannel
	index, err := strconv.ParseInt(string(key.Rune), 10, 64)
	if nil != err || index > int64(len(levels)-1) {
		return err
	}
	lvl := levels[index]

	// Backing track is optional; a level directory without audio is
	// played in silence.
	audioFile := mp3File
	if ogg != "" {
		audioFile = ogg
	}
	if audioFile != "" {
		log.Printf("Opening %v\n", audioFile)
		f, err := os.Open(audioFile)
		if nil != err {
			return err
		}
		var streamer beep.StreamSeekCloser
		var format beep.Format
		if ogg != "" {
			streamer, format, err = vorbis.Decode(f)
		} else {
			streamer, format, err = mp3.Decode(f)
		}
		if nil != err {
			return err
		}
		defer streamer.Close()

		speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/60))
		go func() {
			time.Sleep(*config.Delay)
			speaker.Play(beep.Loop(-1, streamer))
		}()
	}

	queue := blocks.NewDefaultQueue(lvl, time.Now().UnixNano())
	detector := pitch.NewDefaultDetector(lvl.RequiredHold)

	program := &Program{
		Renderer: r,
		Theme:    th,
		Queue:    queue,
		Detector: detector,
		Level:    lvl,
		Keys:     keyChannel,
	}
	program.Engine = engine.New(lvl, queue, recorder, program)
	if err := detector.Start(program); nil != err {
		return err
	}
	defer detector.Stop()

	// Clear the screen and hide the cursor
	if err := r.Init(); nil != err {
		return err
	}
	defer func() {
		// Restore the terminal state
		if err := r.Deinit(); nil != err {
			log.Println("unable to restore terminal", err)
		}
	}()

	if err := program.Resize(); nil != err {
		return err
	}

	program.Run()
	return nil
}
