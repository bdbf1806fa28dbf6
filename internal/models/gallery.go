package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GalleryItem - единица каталога: видео, изображение или статья о применении роботов.
type GalleryItem struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	SourceType string    `db:"source_type" json:"source_type"`
	SourceURL  string    `db:"source_url" json:"source_url"`
	SourceName string    `db:"source_name" json:"source_name"`

	Title           string     `db:"title" json:"title"`
	TitleZh         *string    `db:"title_zh" json:"title_zh,omitempty"`
	Description     *string    `db:"description" json:"description,omitempty"`
	DescriptionZh   *string    `db:"description_zh" json:"description_zh,omitempty"`
	MediaType       string     `db:"media_type" json:"media_type"`
	ThumbnailURL    *string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	ContentURL      *string    `db:"content_url" json:"content_url,omitempty"`
	DurationSeconds *int       `db:"duration_seconds" json:"duration_seconds,omitempty"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`

	// Классификация v2
	ContentType        string              `db:"content_type" json:"content_type"`
	DeploymentMaturity string              `db:"deployment_maturity" json:"deployment_maturity"`
	EducationalValue   int                 `db:"educational_value" json:"educational_value"`
	ApplicationContext *ApplicationContext `db:"application_context" json:"application_context,omitempty"`

	// Теги RSIP
	ApplicationCategory    string               `db:"application_category" json:"application_category"`
	TaskTypes              pq.StringArray       `db:"task_types" json:"task_types"`
	SpecificTasks          pq.StringArray       `db:"specific_tasks" json:"specific_tasks"`
	FunctionalRequirements pq.StringArray       `db:"functional_requirements" json:"functional_requirements"`
	SceneType              *string              `db:"scene_type" json:"scene_type,omitempty"`
	EnvironmentSetting     *string              `db:"environment_setting" json:"environment_setting,omitempty"`
	EnvironmentFeatures    *EnvironmentFeatures `db:"environment_features" json:"environment_features,omitempty"`

	RobotNames    pq.StringArray `db:"robot_names" json:"robot_names"`
	RobotTypes    pq.StringArray `db:"robot_types" json:"robot_types"`
	Manufacturers pq.StringArray `db:"manufacturers" json:"manufacturers"`

	AISummary   *string `db:"ai_summary" json:"ai_summary,omitempty"`
	AISummaryZh *string `db:"ai_summary_zh" json:"ai_summary_zh,omitempty"`

	ViewCount int  `db:"view_count" json:"view_count"`
	Featured  bool `db:"featured" json:"featured"`

	Status        string     `db:"status" json:"status"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerNotes *string    `db:"reviewer_notes" json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveTasks возвращает specific_tasks, если они заданы, иначе task_types.
func (g *GalleryItem) EffectiveTasks() []string {
	if len(g.SpecificTasks) > 0 {
		return g.SpecificTasks
	}
	return g.TaskTypes
}

// galleryItemFields - поля GalleryItem без его методов, чтобы не зациклить MarshalJSON.
type galleryItemFields GalleryItem

// galleryItemJSON - представление материала в API: все колонки плюс задачи для показа.
type galleryItemJSON struct {
	galleryItemFields
	EffectiveTasks []string `json:"effective_tasks"`
}

func newGalleryItemJSON(g GalleryItem) galleryItemJSON {
	tasks := g.EffectiveTasks()
	if tasks == nil {
		tasks = []string{}
	}
	return galleryItemJSON{galleryItemFields: galleryItemFields(g), EffectiveTasks: tasks}
}

// MarshalJSON добавляет effective_tasks, чтобы клиенты не повторяли правило приоритета.
func (g GalleryItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(newGalleryItemJSON(g))
}

// Field отдаёт значение колонки для выполнения запросов в памяти.
// Отсутствующие значения возвращаются как nil.
func (g GalleryItem) Field(column string) interface{} {
	switch column {
	case "id":
		return g.ID
	case "external_id":
		return g.ExternalID
	case "source_type":
		return g.SourceType
	case "title":
		return g.Title
	case "description":
		return optString(g.Description)
	case "ai_summary":
		return optString(g.AISummary)
	case "media_type":
		return g.MediaType
	case "published_at":
		return optTime(g.PublishedAt)
	case "content_type":
		return g.ContentType
	case "deployment_maturity":
		return g.DeploymentMaturity
	case "educational_value":
		return g.EducationalValue
	case "application_category":
		return g.ApplicationCategory
	case "task_types":
		return []string(g.TaskTypes)
	case "specific_tasks":
		return []string(g.SpecificTasks)
	case "functional_requirements":
		return []string(g.FunctionalRequirements)
	case "manufacturers":
		return []string(g.Manufacturers)
	case "scene_type":
		return optString(g.SceneType)
	case "environment_setting":
		return optString(g.EnvironmentSetting)
	case "view_count":
		return g.ViewCount
	case "featured":
		return g.Featured
	case "status":
		return g.Status
	case "reviewed_at":
		return optTime(g.ReviewedAt)
	case "created_at":
		return g.CreatedAt
	case "updated_at":
		return g.UpdatedAt
	}
	return nil
}

// ApplicationContext описывает контекст внедрения (JSONB).
type ApplicationContext struct {
	ProblemSolved      string `json:"problem_solved,omitempty"`
	DeploymentScale    string `json:"deployment_scale,omitempty"`
	CustomerIdentified bool   `json:"customer_identified"`
	HasMetrics         bool   `json:"has_metrics"`
}

func (a *ApplicationContext) Scan(src interface{}) error { return scanJSON(src, a) }

func (a ApplicationContext) Value() (driver.Value, error) { return json.Marshal(a) }

// EnvironmentFeatures - структурированные признаки окружения (JSONB).
type EnvironmentFeatures struct {
	Setting       string `json:"setting,omitempty"`
	HumanPresence string `json:"human_presence,omitempty"`
	FloorType     string `json:"floor_type,omitempty"`
	Lighting      string `json:"lighting,omitempty"`
}

func (e *EnvironmentFeatures) Scan(src interface{}) error { return scanJSON(src, e) }

func (e EnvironmentFeatures) Value() (driver.Value, error) { return json.Marshal(e) }

// GalleryFilters - фильтры публичной галереи. Все поля необязательны.
type GalleryFilters struct {
	Category            string   `json:"category,omitempty"`
	TaskTypes           []string `json:"task_types,omitempty"`
	SpecificTasks       []string `json:"specific_tasks,omitempty"`
	Requirements        []string `json:"requirements,omitempty"`
	SceneType           string   `json:"scene_type,omitempty"`
	MediaType           string   `json:"media_type,omitempty"`
	ContentTypes        []string `json:"content_types,omitempty"`
	MinEducationalValue *int     `json:"min_educational_value,omitempty"`
	Search              string   `json:"search,omitempty"`
	Featured            *bool    `json:"featured,omitempty"`
	IncludeDemos        bool     `json:"include_demos,omitempty"`
}

// GalleryPage - страница выдачи. Error заполняется при сбое хранилища.
type GalleryPage struct {
	Items      []GalleryItem `json:"items"`
	TotalCount int           `json:"total_count"`
	Error      string        `json:"error,omitempty"`
}

// CombinedPage - смешанная лента видео и изображений.
type CombinedPage struct {
	Items      []GalleryItem `json:"items"`
	TotalCount int           `json:"total_count"`
	VideoCount int           `json:"video_count"`
	ImageCount int           `json:"image_count"`
	Error      string        `json:"error,omitempty"`
}

// FilterOptions - доступные значения фильтров.
type FilterOptions struct {
	Categories    []string `json:"categories"`
	SceneTypes    []string `json:"scene_types"`
	TaskTypes     []string `json:"task_types"`
	Manufacturers []string `json:"manufacturers"`
}

// GalleryStats - агрегаты по опубликованному каталогу.
type GalleryStats struct {
	Total         int            `json:"total"`
	ByCategory    map[string]int `json:"by_category"`
	ByContentType map[string]int `json:"by_content_type"`
	QualityCount  int            `json:"quality_count"`
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("models: неподдерживаемый тип JSONB %T", src)
	}
}

func optString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func optTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
