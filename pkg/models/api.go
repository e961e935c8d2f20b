package models

import "sitecms/pkg/content"

// PersistRequest is the body of PATCH /api/content.
type PersistRequest struct {
	Page    string       `json:"page" binding:"required"`
	Key     string       `json:"key" binding:"required"`
	Locale  string       `json:"locale" binding:"required"`
	Content content.Node `json:"content"`
}

// PersistResponse reports the outcome of a persist or save.
type PersistResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// UploadResponse is returned by image uploads.
type UploadResponse struct {
	URL string `json:"url"`
}

type DeleteMediaRequest struct {
	Name string `json:"name" binding:"required"`
}

type OpenSessionRequest struct {
	Page string `json:"page" binding:"required"`
	Key  string `json:"key" binding:"required"`
}

type OpenSessionResponse struct {
	ID      string           `json:"id"`
	Page    string           `json:"page"`
	Key     string           `json:"key"`
	Locales []content.Locale `json:"locales"`
}

type PatchRequest struct {
	Path  content.Path `json:"path"`
	Value content.Node `json:"value"`
}

type ItemRequest struct {
	Path content.Path `json:"path"`
}

// DraftResponse carries a locale's draft and its editing widgets.
type DraftResponse struct {
	Locale content.Locale  `json:"locale"`
	Dirty  bool            `json:"dirty"`
	Root   content.Node    `json:"root"`
	Widget *content.Widget `json:"widget,omitempty"`
}

type ChangesResponse struct {
	Locale     content.Locale   `json:"locale"`
	Changes    []content.Change `json:"changes"`
	MergePatch content.Node     `json:"merge_patch"`
}
