package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/file"
)

type fileResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Filename     string    `json:"filename"`
	FileSize     int64     `json:"file_size"`
	StoragePath  string    `json:"storage_path"`
	HasThumbnail bool      `json:"has_thumbnail"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func toFileResponse(f file.File, thumbnailURL string) fileResponse {
	resp := fileResponse{
		ID:           f.ID,
		UserID:       f.OwnerID,
		Filename:     f.Filename,
		FileSize:     f.SizeBytes,
		StoragePath:  f.StorageKey,
		HasThumbnail: f.HasThumbnail,
		UploadedAt:   f.UploadedAt,
	}
	if thumbnailURL != "" {
		resp.ThumbnailURL = &thumbnailURL
	}
	return resp
}

type uploadResponse struct {
	File    fileResponse `json:"file"`
	Message string       `json:"message"`
}

type listResponse struct {
	Files      []fileResponse `json:"files"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func toAuthResponse(res auth.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		User: userResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			CreatedAt: res.User.CreatedAt,
		},
	}
}
