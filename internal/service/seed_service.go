package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository"
)

// SeedService наполняет хранилище в памяти демонстрационными данными
// для локальной разработки с STORE_DRIVER=memory.
type SeedService struct {
	store *repository.MemoryStore
	rng   *rand.Rand
	now   time.Time
}

func NewSeedService(store *repository.MemoryStore, seed int64) *SeedService {
	return &SeedService{
		store: store,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now(),
	}
}

var seedTasks = map[string][]string{
	models.CategoryIndustrialAutomation: {"picking", "palletizing", "welding", "inspection", "assembly"},
	models.CategoryServiceRobotics:      {"delivery", "cleaning", "reception", "food_preparation"},
	models.CategorySurveillanceSecurity: {"patrol", "perimeter_monitoring", "inspection"},
}

var seedScenes = []string{"warehouse", "factory_floor", "hospital", "restaurant", "parking_lot", "airport"}

var seedManufacturers = []string{"ABB", "FANUC", "KUKA", "Boston Dynamics", "Knightscope", "Pudu", "Universal Robots"}

// seedStatuses задаёт долю статусов: большая часть опубликована.
var seedStatuses = []string{"approved", "approved", "approved", "approved", "pending", "pending", "flagged", "rejected"}

// SeedData создаёт numItems материалов и несколько жалоб на случайные из них.
func (s *SeedService) SeedData(numItems, numReports int) ([]models.GalleryItem, error) {
	if numItems <= 0 {
		return nil, fmt.Errorf("seed service: numItems должен быть больше 0")
	}

	items := make([]models.GalleryItem, 0, numItems)
	for i := 0; i < numItems; i++ {
		items = append(items, s.generateItem(i))
	}
	s.store.SeedItems(items...)

	reasons := []string{
		models.ReportReasonSpam, models.ReportReasonMisleading,
		models.ReportReasonBrokenLink, models.ReportReasonCopyright,
	}
	reports := make([]models.ContentReport, 0, numReports)
	for i := 0; i < numReports; i++ {
		target := items[s.rng.Intn(len(items))]
		reports = append(reports, models.ContentReport{
			GalleryItemID: target.ID,
			Reason:        reasons[s.rng.Intn(len(reasons))],
			Status:        "pending",
			CreatedAt:     s.now.Add(-time.Duration(s.rng.Intn(72)) * time.Hour),
		})
	}
	s.store.SeedReports(reports...)

	return items, nil
}

func (s *SeedService) generateItem(i int) models.GalleryItem {
	category := models.Categories[s.rng.Intn(len(models.Categories))]
	tasks := seedTasks[category]
	taskTypes := pq.StringArray{tasks[s.rng.Intn(len(tasks))]}
	if s.rng.Intn(3) == 0 {
		taskTypes = append(taskTypes, tasks[s.rng.Intn(len(tasks))])
	}

	mediaType := models.MediaTypeVideo
	sourceType := models.SourceYouTube
	sourceURL := fmt.Sprintf("https://www.youtube.com/watch?v=demo%04d", i)
	if s.rng.Intn(2) == 0 {
		mediaType = models.MediaTypeImage
		sourceType = models.SourceCompanyWebsite
		sourceURL = fmt.Sprintf("https://example.com/robots/%d.jpg", i)
	}

	scene := seedScenes[s.rng.Intn(len(seedScenes))]
	published := s.now.AddDate(0, 0, -s.rng.Intn(365))
	created := s.now.Add(-time.Duration(s.rng.Intn(30*24)) * time.Hour)
	status := seedStatuses[s.rng.Intn(len(seedStatuses))]
	title := fmt.Sprintf("%s: %s #%d", taskTypes[0], scene, i+1)

	item := models.GalleryItem{
		ID:                  uuid.New(),
		ExternalID:          fmt.Sprintf("seed-%d", i),
		SourceType:          sourceType,
		SourceURL:           sourceURL,
		SourceName:          "Demo",
		Title:               title,
		MediaType:           mediaType,
		PublishedAt:         &published,
		ContentType:         models.ContentTypes[s.rng.Intn(len(models.ContentTypes))],
		DeploymentMaturity:  models.MaturityProduction,
		EducationalValue:    1 + s.rng.Intn(5),
		ApplicationCategory: category,
		TaskTypes:           taskTypes,
		SceneType:           &scene,
		Manufacturers:       pq.StringArray{seedManufacturers[s.rng.Intn(len(seedManufacturers))]},
		ViewCount:           s.rng.Intn(5000),
		Featured:            s.rng.Intn(10) == 0,
		Status:              status,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	if status != "pending" {
		reviewed := created.Add(time.Hour)
		item.ReviewedAt = &reviewed
	}
	return item
}
