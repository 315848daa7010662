package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"jobboard/internal/api/middleware"
)

const (
	assetKeyPrefix    = "user-assets"
	presignedURLTTL   = 15 * time.Minute
	maxAssetSizeBytes = 10 << 20
)

// 允许上传的资产种类及其内容类型白名单。
var allowedAssetTypes = map[string]map[string]bool{
	"resume": {
		"application/pdf": true,
	},
	"logo": {
		"image/png":  true,
		"image/jpeg": true,
		"image/webp": true,
	},
	"photo": {
		"image/png":  true,
		"image/jpeg": true,
		"image/webp": true,
	},
}

// objectStorage 是资产处理器依赖的最小存储接口，*storage.Client 满足它。
type objectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// AssetHandler 负责简历、公司 Logo 与头像的上传和下载链接签发。
type AssetHandler struct {
	storage   objectStorage
	clamdAddr string
}

// NewAssetHandler 构造 AssetHandler。clamdAddr 为空时跳过病毒扫描。
func NewAssetHandler(storageClient objectStorage, clamdAddr string) *AssetHandler {
	return &AssetHandler{storage: storageClient, clamdAddr: clamdAddr}
}

// Upload 接收 multipart 文件，扫描后存入对象存储，
// 返回对象键与限时下载链接。对象键按上传者隔离：
// 已认证请求以令牌中的用户 ID 为准，表单字段不可冒充他人。
func (h *AssetHandler) Upload(c *gin.Context) {
	uploaderID, authenticated := middleware.ClerkUserIDFromContext(c)
	if authenticated {
		if form := c.PostForm("uploaderId"); form != "" && form != uploaderID {
			Forbidden(c, "uploaderId does not match the authenticated user")
			return
		}
	} else {
		uploaderID = c.PostForm("uploaderId")
	}
	if uploaderID == "" {
		BadRequest(c, "`uploaderId` form field is required.")
		return
	}

	kind := c.PostForm("kind")
	allowedContentTypes, ok := allowedAssetTypes[kind]
	if !ok {
		BadRequest(c, "`kind` must be one of: resume, logo, photo.")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "`file` form field is required.")
		return
	}
	if fileHeader.Size > maxAssetSizeBytes {
		BadRequest(c, "file exceeds the 10MB size limit")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		BadRequest(c, fmt.Sprintf("content type %q is not allowed for kind %q", contentType, kind))
		return
	}

	if h.clamdAddr != "" {
		clean, err := h.scanFile(fileHeader)
		if err != nil {
			middleware.LoggerFromContext(c).Error("virus scan failed", slog.Any("error", err))
			Internal(c, "virus scan unavailable")
			return
		}
		if !clean {
			BadRequest(c, "file rejected by virus scan")
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		Internal(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	ext := filepath.Ext(fileHeader.Filename)
	objectKey := fmt.Sprintf("%s/%s/%s/%s%s", assetKeyPrefix, uploaderID, kind, uuid.NewString(), ext)

	ctx := c.Request.Context()
	if _, err := h.storage.UploadFile(ctx, objectKey, file, fileHeader.Size, contentType); err != nil {
		middleware.LoggerFromContext(c).Error("asset upload failed",
			slog.String("object_key", objectKey),
			slog.Any("error", err),
		)
		Internal(c, "failed to store file")
		return
	}

	presignedURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, presignedURLTTL)
	if err != nil {
		Internal(c, "failed to generate download url")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"objectKey": objectKey,
		"url":       presignedURL,
	})
}

// GetAssetURL 为已存在的对象签发限时下载链接。
// 只接受本系统前缀下的键；已认证请求还必须限定在自己的目录内，
// 不能为其他用户的对象签发链接。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "`key` query parameter is required.")
		return
	}
	if !strings.HasPrefix(objectKey, assetKeyPrefix+"/") || strings.Contains(objectKey, "..") {
		BadRequest(c, "invalid object key")
		return
	}
	if userID, authenticated := middleware.ClerkUserIDFromContext(c); authenticated {
		if !strings.HasPrefix(objectKey, assetKeyPrefix+"/"+userID+"/") {
			Forbidden(c, "object key belongs to another user")
			return
		}
	}

	presignedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), objectKey, presignedURLTTL)
	if err != nil {
		Internal(c, "failed to generate download url")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"objectKey": objectKey,
		"url":       presignedURL,
	})
}

func (h *AssetHandler) scanFile(fileHeader *multipart.FileHeader) (bool, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := clamd.NewClamd(h.clamdAddr)
	responses, err := scanner.ScanStream(file, make(chan bool))
	if err != nil {
		return false, err
	}

	for response := range responses {
		if response.Status != clamd.RES_OK {
			return false, nil
		}
	}
	return true, nil
}
