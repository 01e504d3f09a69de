package app

import (
	"errors"
	"flag"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath     string
	SweepID    int64
	OutputFile string
	Format     ImageFormat
	MaxSWR     float64
	Verbose    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		MaxSWR: 10,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SweepID, "s", 1, "Sweep ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.Float64Var(&c.MaxSWR, "max-swr", 10, "Chart ceiling for the SWR axis")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	c.Format = ImageFormat(strings.ToLower(imageFormat))

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SweepID <= 0 {
		err = errors.New("sweep id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[c.Format]; !ok {
		err = errors.New("unsupported image format")
	} else if c.MaxSWR <= 1 {
		err = errors.New("max-swr must be above 1")
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}
