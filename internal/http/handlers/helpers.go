package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/http/handlers/common"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
)

// parseFilters читает фильтры галереи из query string. Незнакомые параметры игнорируются.
func parseFilters(c *gin.Context) (models.GalleryFilters, error) {
	f := models.GalleryFilters{
		Category:      c.Query("category"),
		TaskTypes:     common.QueryList(c, "task_types"),
		SpecificTasks: common.QueryList(c, "specific_tasks"),
		Requirements:  common.QueryList(c, "requirements"),
		SceneType:     c.Query("scene_type"),
		MediaType:     c.Query("media_type"),
		ContentTypes:  common.QueryList(c, "content_types"),
		Search:        c.Query("search"),
	}

	var err error
	if f.MinEducationalValue, err = common.ParseOptionalIntQuery(c, "min_educational_value"); err != nil {
		return f, err
	}
	if f.Featured, err = common.ParseOptionalBoolQuery(c, "featured"); err != nil {
		return f, err
	}
	demos, err := common.ParseOptionalBoolQuery(c, "include_demos")
	if err != nil {
		return f, err
	}
	f.IncludeDemos = demos != nil && *demos
	return f, nil
}

func sortParam(c *gin.Context) string {
	return c.DefaultQuery("sort", models.SortRecent)
}

// respondAction отдаёт результат действия. Неуспех получает статус по коду ошибки.
func respondAction(c *gin.Context, res models.ActionResult, successStatus int) {
	if res.Success {
		c.JSON(successStatus, res)
		return
	}
	status := apperror.StatusFor(apperror.ErrorCode(res.Code))
	if res.Code == "" {
		status = http.StatusInternalServerError
	}
	c.JSON(status, res)
}
