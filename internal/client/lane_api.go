package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"lane-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// LaneAPIClient клиент для HTTP API поиска разметки
type LaneAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewLaneAPIClient создает новый клиент. baseURL без суффикса /api/v1.
func NewLaneAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *LaneAPIClient {
	return &LaneAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DetectImage отправляет изображение на поиск разметки
func (c *LaneAPIClient) DetectImage(filename string, data []byte) (*models.DetectResponse, error) {
	var result models.DetectResponse
	if err := c.upload("/api/v1/detect", "image", filename, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DetectVideo отправляет видео на обработку
func (c *LaneAPIClient) DetectVideo(filename string, data []byte) (*models.DetectResponse, error) {
	var result models.DetectResponse
	if err := c.upload("/api/v1/videos", "video", filename, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDetections получает страницу списка обработок
func (c *LaneAPIClient) ListDetections(page, size int) (*models.ListDetectionsResponse, error) {
	var result models.ListDetectionsResponse
	path := fmt.Sprintf("/api/v1/detections?page=%d&size=%d", page, size)
	if err := c.getJSON(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckHealth проверяет состояние API
func (c *LaneAPIClient) CheckHealth() (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья API")

	var result models.HealthResponse
	if err := c.getJSON("/api/v1/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *LaneAPIClient) upload(path, field, filename string, data []byte, out interface{}) error {
	c.logger.Infof("Отправка файла %s (%d байт) на %s", filename, len(data), path)

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, out)
}

func (c *LaneAPIClient) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *LaneAPIClient) do(req *http.Request, out interface{}) error {
	c.logger.Debugf("Отправка %s запроса на %s", req.Method, req.URL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError ответ API с кодом, отличным от 200
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}
