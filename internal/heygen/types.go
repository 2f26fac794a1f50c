// Package heygen provides an HTTP client for the HeyGen avatar video API.
package heygen

import "encoding/json"

// GenerateRequest is the request body for the video generation endpoint.
type GenerateRequest struct {
	Caption     bool         `json:"caption"`
	Title       string       `json:"title"`
	Dimension   Dimension    `json:"dimension"`
	VideoInputs []VideoInput `json:"video_inputs"`
	CallbackURL string       `json:"callback_url,omitempty"`
}

// Dimension is the output video size.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoInput describes one scene of the generated video.
type VideoInput struct {
	Character  Character  `json:"character"`
	Voice      Voice      `json:"voice"`
	Background Background `json:"background"`
}

// Character selects the avatar for a scene.
type Character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

// Voice selects the spoken text and voice for a scene.
type Voice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

// Background is the scene background.
type Background struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// generateResponse is the envelope of the generation endpoint.
type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error json.RawMessage `json:"error"`
}

// StatusEnvelope is the response of the video status endpoint.
type StatusEnvelope struct {
	Code int         `json:"code"`
	Data *StatusData `json:"data"`
}

// StatusData carries the video state. Error is raw because HeyGen
// switches between a string and an object across variants.
type StatusData struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	VideoURL string          `json:"video_url"`
	Error    json.RawMessage `json:"error"`
}
