package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/rsip-gallery/internal/domain/valueobject"
	"github.com/ignatzorin/rsip-gallery/internal/goroutine"
	"github.com/ignatzorin/rsip-gallery/internal/logger"
	"github.com/ignatzorin/rsip-gallery/internal/metrics"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
	"github.com/ignatzorin/rsip-gallery/internal/validation"
)

// combinedOverfetch - сколько лишних материалов запрашивать у каждого источника
// смешанной ленты, чтобы после пересортировки хватило на пачку.
const combinedOverfetch = 12

const (
	defaultRelatedLimit  = 4
	defaultFeaturedLimit = 6
	defaultSearchLimit   = 20
)

// Сообщение для пользователя при сбое хранилища. Подробности уходят в лог.
const msgStoreUnavailable = "не удалось загрузить материалы, попробуйте позже"

// searchColumns - поля, по которым идёт текстовый поиск.
var searchColumns = []string{"title", "description", "ai_summary"}

// GalleryStore - операции хранилища, нужные публичной галерее.
type GalleryStore interface {
	List(ctx context.Context, q *query.Query) ([]models.GalleryItem, int, error)
	Count(ctx context.Context, q *query.Query) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	ContentTypeStats(ctx context.Context) (map[string]int, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
}

type GalleryService struct {
	store   GalleryStore
	cache   *CacheService
	timeout time.Duration
	async   func(fn func())
	log     *logrus.Entry
}

func NewGalleryService(store GalleryStore, cache *CacheService, timeout time.Duration) *GalleryService {
	return &GalleryService{
		store:   store,
		cache:   cache,
		timeout: timeout,
		async:   goroutine.SafeGo,
		log:     logger.WithComponent("gallery"),
	}
}

// FetchItems возвращает страницу опубликованных материалов и точное число совпадений.
// Ошибка возвращается только для некорректных входных данных; сбой хранилища
// даёт пустую страницу с заполненным Error.
func (s *GalleryService) FetchItems(ctx context.Context, filters models.GalleryFilters, limit, offset int, sortBy string) (*models.GalleryPage, error) {
	if limit <= 0 {
		return nil, apperror.Validation("limit должен быть больше 0")
	}
	if offset < 0 {
		return nil, apperror.Validation("offset не может быть отрицательным")
	}
	if err := validateSort(sortBy); err != nil {
		return nil, err
	}
	if err := ValidateFilters(filters); err != nil {
		return nil, err
	}

	q := BuildQuery(EffectiveFilters(filters))
	applySort(q, sortBy)
	q.Range(offset, limit)

	metrics.GalleryQueries.WithLabelValues("page").Inc()

	var (
		items []models.GalleryItem
		total int
	)
	err := storeCall(ctx, s.timeout, "gallery_list", func(ctx context.Context) error {
		var err error
		items, total, err = s.store.List(ctx, q)
		return err
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"limit":  limit,
			"offset": offset,
			"sort":   sortBy,
		}).Error("не удалось получить материалы галереи")
		return &models.GalleryPage{Items: []models.GalleryItem{}, TotalCount: 0, Error: msgStoreUnavailable}, nil
	}

	if items == nil {
		items = []models.GalleryItem{}
	}
	return &models.GalleryPage{Items: items, TotalCount: total}, nil
}

// FetchCombinedVisualFeed собирает смешанную ленту видео и изображений.
// Каждый источник листается независимо со смещением appendOffset/2, поэтому при сильном
// перекосе между числом видео и изображений «показать ещё» может пропускать или
// повторять материалы.
func (s *GalleryService) FetchCombinedVisualFeed(ctx context.Context, filters models.GalleryFilters, appendOffset, batchSize int, sortBy string) (*models.CombinedPage, error) {
	if batchSize <= 0 {
		return nil, apperror.Validation("batch_size должен быть больше 0")
	}
	if appendOffset < 0 {
		return nil, apperror.Validation("offset не может быть отрицательным")
	}
	if err := validateSort(sortBy); err != nil {
		return nil, err
	}
	filters.MediaType = ""
	if err := ValidateFilters(filters); err != nil {
		return nil, err
	}

	metrics.GalleryQueries.WithLabelValues("combined").Inc()

	offset := appendOffset / 2
	limit := batchSize + combinedOverfetch

	var video, image *models.GalleryPage
	var g errgroup.Group
	g.Go(func() error {
		f := filters
		f.MediaType = models.MediaTypeVideo
		page, err := s.FetchItems(ctx, f, limit, offset, sortBy)
		video = page
		return err
	})
	g.Go(func() error {
		f := filters
		f.MediaType = models.MediaTypeImage
		page, err := s.FetchItems(ctx, f, limit, offset, sortBy)
		image = page
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make([]models.GalleryItem, 0, len(video.Items)+len(image.Items))
	combined = append(combined, video.Items...)
	combined = append(combined, image.Items...)

	less := mergeLess(sortBy)
	sort.SliceStable(combined, func(i, j int) bool { return less(&combined[i], &combined[j]) })
	if len(combined) > batchSize {
		combined = combined[:batchSize]
	}

	page := &models.CombinedPage{
		Items:      combined,
		TotalCount: video.TotalCount + image.TotalCount,
		VideoCount: video.TotalCount,
		ImageCount: image.TotalCount,
	}
	if video.Error != "" || image.Error != "" {
		page.Error = msgStoreUnavailable
	}
	return page, nil
}

// FetchRelated подбирает похожие материалы той же категории. Если строгий запрос
// не выполнился, повторяет более простой; при повторном сбое возвращает пустой список.
func (s *GalleryService) FetchRelated(ctx context.Context, item *models.GalleryItem, limit int) []models.GalleryItem {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	metrics.GalleryQueries.WithLabelValues("related").Inc()

	base := func() *query.Query {
		q := query.New().
			Eq("status", string(valueobject.ItemStatusApproved)).
			Eq("application_category", item.ApplicationCategory).
			Neq("id", item.ID)
		if len(item.TaskTypes) > 0 {
			q.Overlaps("task_types", item.TaskTypes)
		}
		return q
	}

	strict := base().
		In("content_type", models.QualityContentTypes).
		Gte("educational_value", models.QualityMinEducationalValue).
		OrderBy("educational_value", true).
		OrderBy("view_count", true).
		OrderBy("id", false).
		Range(0, limit)

	items, err := s.list(ctx, "gallery_related", strict)
	if err == nil {
		return items
	}
	s.log.WithError(err).WithField("item_id", item.ID).Warn("строгий подбор похожих не удался, пробуем упрощённый")
	metrics.RelatedFallbacks.Inc()

	loose := base().
		OrderBy("view_count", true).
		OrderBy("id", false).
		Range(0, limit)

	items, err = s.list(ctx, "gallery_related_fallback", loose)
	if err != nil {
		s.log.WithError(err).WithField("item_id", item.ID).Error("не удалось подобрать похожие материалы")
		return []models.GalleryItem{}
	}
	return items
}

// IncrementViewCount увеличивает счётчик просмотров в фоне. Ошибка только логируется.
func (s *GalleryService) IncrementViewCount(ctx context.Context, id uuid.UUID) {
	// Запрос клиента завершится раньше фоновой задачи, поэтому отмену не наследуем.
	bg := context.WithoutCancel(ctx)
	s.async(func() {
		err := storeCall(bg, s.timeout, "gallery_increment_view", func(ctx context.Context) error {
			return s.store.IncrementViewCount(ctx, id)
		})
		if err != nil {
			metrics.ViewIncrements.WithLabelValues("error").Inc()
			s.log.WithError(err).WithField("item_id", id).Warn("не удалось увеличить счётчик просмотров")
			return
		}
		metrics.ViewIncrements.WithLabelValues("ok").Inc()
	})
}

// GetItem возвращает опубликованный материал. Отсутствующий или неопубликованный - nil без ошибки.
func (s *GalleryService) GetItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	var item *models.GalleryItem
	err := storeCall(ctx, s.timeout, "gallery_get", func(ctx context.Context) error {
		var err error
		item, err = s.store.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("item_id", id).Error("не удалось получить материал")
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgStoreUnavailable)
	}
	if item.Status != string(valueobject.ItemStatusApproved) {
		return nil, nil
	}
	return item, nil
}

// Search ищет по заголовку, описанию и AI-сводке с учётом порога качества.
func (s *GalleryService) Search(ctx context.Context, term, category string, limit int) (*models.GalleryPage, error) {
	term = strings.TrimSpace(term)
	if err := validation.ValidateNonEmpty("поисковый запрос", term); err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}
	if err := validation.ValidateLength("поисковый запрос", term, 0, validation.MaxSearchLength); err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.FetchItems(ctx, models.GalleryFilters{Search: term, Category: category}, limit, 0, models.SortRecent)
}

// Featured возвращает избранные материалы.
func (s *GalleryService) Featured(ctx context.Context, limit int) ([]models.GalleryItem, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	featured := true
	page, err := s.FetchItems(ctx, models.GalleryFilters{Featured: &featured}, limit, 0, models.SortRecent)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FilterOptions возвращает значения для фильтров. При сбое отдаёт статический
// набор категорий и не кеширует его.
func (s *GalleryService) FilterOptions(ctx context.Context) *models.FilterOptions {
	v, err := s.cache.GetOrSet(ctx, FilterOptionsCacheKey(), func(ctx context.Context) (interface{}, error) {
		var opts *models.FilterOptions
		err := storeCall(ctx, s.timeout, "gallery_filter_options", func(ctx context.Context) error {
			var err error
			opts, err = s.store.FilterOptions(ctx)
			return err
		})
		return opts, err
	})
	if err != nil {
		s.log.WithError(err).Warn("не удалось получить значения фильтров, используем статический набор")
		return fallbackFilterOptions()
	}
	return v.(*models.FilterOptions)
}

// Stats считает агрегаты опубликованного каталога. Результат кешируется.
func (s *GalleryService) Stats(ctx context.Context) (*models.GalleryStats, error) {
	v, err := s.cache.GetOrSet(ctx, GalleryStatsCacheKey(), func(ctx context.Context) (interface{}, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		s.log.WithError(err).Error("не удалось посчитать статистику галереи")
		return nil, apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgStoreUnavailable)
	}
	return v.(*models.GalleryStats), nil
}

func (s *GalleryService) computeStats(ctx context.Context) (*models.GalleryStats, error) {
	approved := func() *query.Query {
		return query.New().Eq("status", string(valueobject.ItemStatusApproved))
	}

	var (
		total, quality int
		perCategory    = make([]int, len(models.Categories))
		byContentType  map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.count(gctx, approved())
		return err
	})
	for i, category := range models.Categories {
		g.Go(func() error {
			var err error
			perCategory[i], err = s.count(gctx, approved().Eq("application_category", category))
			return err
		})
	}
	g.Go(func() error {
		var err error
		quality, err = s.count(gctx, approved().
			In("content_type", models.QualityContentTypes).
			Gte("educational_value", models.QualityMinEducationalValue))
		return err
	})
	g.Go(func() error {
		var err error
		byContentType, err = s.contentTypeStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.GalleryStats{
		Total:         total,
		ByCategory:    make(map[string]int, len(models.Categories)),
		ByContentType: byContentType,
		QualityCount:  quality,
	}
	for i, category := range models.Categories {
		stats.ByCategory[category] = perCategory[i]
	}
	return stats, nil
}

// contentTypeStats берёт агрегат из процедуры БД, а если её нет - считает по типам.
func (s *GalleryService) contentTypeStats(ctx context.Context) (map[string]int, error) {
	var stats map[string]int
	err := storeCall(ctx, s.timeout, "gallery_content_type_stats", func(ctx context.Context) error {
		var err error
		stats, err = s.store.ContentTypeStats(ctx)
		return err
	})
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, common.ErrProcedureMissing) {
		return nil, err
	}

	s.log.Info("процедура get_content_type_stats недоступна, считаем по типам")
	stats = make(map[string]int, len(models.ContentTypes))
	for _, ct := range models.ContentTypes {
		n, err := s.count(ctx, query.New().
			Eq("status", string(valueobject.ItemStatusApproved)).
			Eq("content_type", ct))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			stats[ct] = n
		}
	}
	return stats, nil
}

// SubmitSuggestion сохраняет предложение материала от посетителя.
func (s *GalleryService) SubmitSuggestion(ctx context.Context, sg *models.Suggestion) models.ActionResult {
	if err := validateSuggestion(sg); err != nil {
		return failure(err)
	}

	err := storeCall(ctx, s.timeout, "suggestion_create", func(ctx context.Context) error {
		return s.store.CreateSuggestion(ctx, sg)
	})
	if err != nil {
		s.log.WithError(err).Error("не удалось сохранить предложение")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, "не удалось отправить предложение"))
	}
	return models.ActionResult{Success: true}
}

func (s *GalleryService) list(ctx context.Context, op string, q *query.Query) ([]models.GalleryItem, error) {
	var items []models.GalleryItem
	err := storeCall(ctx, s.timeout, op, func(ctx context.Context) error {
		var err error
		items, _, err = s.store.List(ctx, q)
		return err
	})
	if items == nil {
		items = []models.GalleryItem{}
	}
	return items, err
}

func (s *GalleryService) count(ctx context.Context, q *query.Query) (int, error) {
	var n int
	err := storeCall(ctx, s.timeout, "gallery_count", func(ctx context.Context) error {
		var err error
		n, err = s.store.Count(ctx, q)
		return err
	})
	return n, err
}

// EffectiveFilters подмешивает порог качества, если демо-материалы не запрошены явно.
// Поля, заданные вызывающим, не перезаписываются.
func EffectiveFilters(f models.GalleryFilters) models.GalleryFilters {
	if f.IncludeDemos {
		return f
	}
	if len(f.ContentTypes) == 0 {
		f.ContentTypes = append([]string(nil), models.QualityContentTypes...)
	}
	if f.MinEducationalValue == nil {
		floor := models.QualityMinEducationalValue
		f.MinEducationalValue = &floor
	}
	return f
}

// BuildQuery переводит фильтры в предикаты. Всегда ограничивает выборку опубликованными.
func BuildQuery(f models.GalleryFilters) *query.Query {
	q := query.New().Eq("status", string(valueobject.ItemStatusApproved))

	if f.Category != "" {
		q.Eq("application_category", f.Category)
	}
	if len(f.TaskTypes) > 0 {
		q.Overlaps("task_types", f.TaskTypes)
	}
	if len(f.SpecificTasks) > 0 {
		q.Overlaps("specific_tasks", f.SpecificTasks)
	}
	if len(f.Requirements) > 0 {
		q.Overlaps("functional_requirements", f.Requirements)
	}
	if f.SceneType != "" {
		q.Eq("scene_type", f.SceneType)
	}
	if f.MediaType != "" {
		q.Eq("media_type", f.MediaType)
	}
	if len(f.ContentTypes) > 0 {
		q.In("content_type", f.ContentTypes)
	}
	if f.MinEducationalValue != nil {
		q.Gte("educational_value", *f.MinEducationalValue)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q.Search(term, searchColumns...)
	}
	if f.Featured != nil {
		q.Eq("featured", *f.Featured)
	}
	return q
}

// applySort задаёт порядок выдачи. id в конце делает страницы стабильными.
func applySort(q *query.Query, sortBy string) {
	switch sortBy {
	case models.SortQuality:
		q.OrderBy("educational_value", true).OrderBy("featured", true).OrderBy("created_at", true)
	case models.SortPopular:
		q.OrderBy("featured", true).OrderBy("view_count", true)
	case models.SortOldest:
		q.OrderBy("published_at", false)
	default:
		q.OrderBy("featured", true).OrderBy("published_at", true)
	}
	q.OrderBy("id", false)
}

// mergeLess - порядок смешанной ленты. Отсутствующая дата публикации считается самой ранней.
func mergeLess(sortBy string) func(a, b *models.GalleryItem) bool {
	published := func(g *models.GalleryItem) time.Time {
		if g.PublishedAt == nil {
			return time.Unix(0, 0)
		}
		return *g.PublishedAt
	}

	switch sortBy {
	case models.SortQuality:
		return func(a, b *models.GalleryItem) bool { return a.EducationalValue > b.EducationalValue }
	case models.SortPopular:
		return func(a, b *models.GalleryItem) bool { return a.ViewCount > b.ViewCount }
	case models.SortOldest:
		return func(a, b *models.GalleryItem) bool { return published(a).Before(published(b)) }
	default:
		return func(a, b *models.GalleryItem) bool { return published(a).After(published(b)) }
	}
}

func validateSort(sortBy string) error {
	if _, ok := models.ValidSorts[sortBy]; !ok {
		return apperror.Validation("неизвестная сортировка %q", sortBy)
	}
	return nil
}

// ValidateFilters проверяет значения фильтров до построения запроса.
func ValidateFilters(f models.GalleryFilters) error {
	if f.MinEducationalValue != nil {
		v := *f.MinEducationalValue
		if v < models.MinEducationalValue || v > models.MaxEducationalValue {
			return apperror.Validation("min_educational_value должен быть от %d до %d", models.MinEducationalValue, models.MaxEducationalValue)
		}
	}

	checks := []error{
		validateOptionalEnum("category", f.Category, models.ValidCategories),
		validateOptionalEnum("media_type", f.MediaType, models.ValidMediaTypes),
		validation.ValidateEnumList("content_types", f.ContentTypes, models.ValidContentTypes),
		validation.ValidateLength("search", f.Search, 0, validation.MaxSearchLength),
		validateListSize("task_types", f.TaskTypes),
		validateListSize("specific_tasks", f.SpecificTasks),
		validateListSize("requirements", f.Requirements),
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Validation("%s", err.Error())
		}
	}
	return nil
}

func validateOptionalEnum(field, value string, allowed map[string]struct{}) error {
	if value == "" {
		return nil
	}
	return validation.ValidateEnum(field, value, allowed)
}

func validateListSize(field string, values []string) error {
	if len(values) > validation.MaxFilterValues {
		return errors.New(field + ": слишком много значений")
	}
	return nil
}

func validateSuggestion(sg *models.Suggestion) error {
	checks := []error{
		validation.ValidateURL("ссылка", sg.URL),
		validation.ValidateOptionalText("заголовок", sg.Title, validation.MaxSuggestionTitleLength),
		validation.ValidateOptionalText("описание", sg.Description, validation.MaxSuggestionDescription),
		validation.ValidateTags(sg.SuggestedTags),
	}
	if sg.SuggestedCategory != nil && *sg.SuggestedCategory != "" {
		checks = append(checks, validation.ValidateEnum("категория", *sg.SuggestedCategory, models.ValidCategories))
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Validation("%s", err.Error())
		}
	}
	return nil
}

func fallbackFilterOptions() *models.FilterOptions {
	return &models.FilterOptions{
		Categories:    append([]string(nil), models.Categories...),
		SceneTypes:    []string{},
		TaskTypes:     []string{},
		Manufacturers: []string{},
	}
}

// failure превращает ошибку в результат действия.
func failure(err error) models.ActionResult {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return models.ActionResult{Success: false, Error: appErr.Message, Code: string(appErr.Code)}
	}
	return models.ActionResult{Success: false, Error: err.Error(), Code: string(apperror.ErrCodeInternal)}
}
