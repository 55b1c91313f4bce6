package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lane-detector-go/internal/client"

	"github.com/sirupsen/logrus"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	timeout := flag.Duration("timeout", 5*time.Minute, "Request timeout")
	page := flag.Int("page", 1, "Page for the list command")
	size := flag.Int("size", 10, "Page size for the list command")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lanectl [flags] health | list | detect <image> | video <file.mp4>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	api := client.NewLaneAPIClient(*baseURL, *timeout, logger)

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	var (
		result interface{}
		err    error
	)
	switch flag.Arg(0) {
	case "health":
		result, err = api.CheckHealth()
	case "list":
		result, err = api.ListDetections(*page, *size)
	case "detect", "video":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		path := flag.Arg(1)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Fatalf("Ошибка чтения файла: %v", readErr)
		}
		if flag.Arg(0) == "detect" {
			result, err = api.DetectImage(filepath.Base(path), data)
		} else {
			result, err = api.DetectVideo(filepath.Base(path), data)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("Ошибка запроса: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Fatalf("Ошибка вывода ответа: %v", err)
	}
}
