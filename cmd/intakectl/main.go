// Command intakectl fills the client intake form from flags and submits it to a running site server.
//
//	intakectl -endpoint http://localhost:8080/api/intake -name "Ada" -email ada@example.com \
//	    -phone 555-0100 -logo logo.png -inspiration a.jpg -inspiration b.jpg
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"snapbooth/site/internal/intakeform"
	"snapbooth/site/internal/logging"
	"snapbooth/site/internal/storage"

	"github.com/rs/zerolog/log"
)

// fileList collects a repeatable path flag.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var (
		form        intakeform.Form
		endpoint    string
		logoPath    string
		inspiration fileList
		verbose     bool
	)

	fs := flag.NewFlagSet("intakectl", flag.ExitOnError)
	fs.StringVar(&endpoint, "endpoint", "http://localhost:8080/api/intake", "intake endpoint URL")
	fs.StringVar(&form.ContactName, "name", "", "contact name")
	fs.StringVar(&form.ContactEmail, "email", "", "contact email")
	fs.StringVar(&form.ContactPhone, "phone", "", "contact phone")
	fs.StringVar(&form.FilterCopy, "filter-copy", "", "text printed on the photo filter")
	fs.StringVar(&form.RobotTheme, "robot-theme", "", "robot theme")
	fs.StringVar(&form.VoiceActivation, "voice-activation", "", "voice activation phrase")
	fs.StringVar(&form.LoadingInstructions, "loading-instructions", "", "loading and access instructions")
	fs.Int64Var(&form.MaxFileSize, "max-file-size", intakeform.DefaultMaxFileSize, "per-file size limit in bytes")
	fs.StringVar(&logoPath, "logo", "", "company logo image")
	fs.Var(&inspiration, "inspiration", "inspiration image (repeatable)")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	_ = fs.Parse(os.Args[1:])

	level := "info"
	if verbose {
		level = "debug"
	}
	logging.Setup(level, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if logoPath != "" {
		img, err := readImage(logoPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read logo")
		}
		if err := form.SetLogo(&img); err != nil {
			log.Fatal().Err(err).Msg("could not preview logo")
		}
	}

	imgs := make([]intakeform.Image, 0, len(inspiration))
	for _, p := range inspiration {
		img, err := readImage(p)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read inspiration image")
		}
		imgs = append(imgs, img)
	}
	if err := form.AddInspiration(ctx, imgs...); err != nil {
		log.Fatal().Err(err).Msg("could not preview inspiration images")
	}
	_, previews := form.Inspiration()
	for _, p := range previews {
		log.Debug().Str("file", p.Name).Int("width", p.Width).Int("height", p.Height).Bool("placeholder", p.Placeholder).Msg("preview")
	}

	resp, toast, err := intakeform.NewClient(nil, endpoint).Submit(ctx, &form)
	if err != nil {
		log.Error().Err(err).Msg("submission failed")
		fmt.Fprintln(os.Stderr, toast.Message)
		os.Exit(1)
	}
	log.Info().Str("id", resp.ID).Strs("files", resp.Files).Msg("submission accepted")
	fmt.Println(toast.Message)
}

func readImage(path string) (intakeform.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return intakeform.Image{}, err
	}
	name := filepath.Base(path)
	return intakeform.Image{Name: name, ContentType: storage.ContentTypeFor(name), Data: data}, nil
}
