package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"partdepot/internal/apierror"
	"partdepot/internal/dto"
	"partdepot/internal/model"
	"partdepot/internal/query"
	"partdepot/internal/repository"
	"partdepot/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	lookupCachePrefix = "lookup:part:"
	lookupCacheTTL    = 5 * time.Minute

	// createMaxAttempts bounds the retry loop when two concurrent creates
	// race for the same computed part number.
	createMaxAttempts = 3
)

// PartService defines the business logic contract for parts. All authoritative
// validation lives here; handlers only bind and shape I/O.
type PartService interface {
	Create(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.PartResponse, error)
	GetByPartNumber(ctx context.Context, raw string) (*dto.PartResponse, error)
	List(ctx context.Context, filter dto.PartFilter) (*dto.PartListResponse, error)
	Move(ctx context.Context, id uuid.UUID, req dto.MovePartRequest) (*dto.PartResponse, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, req dto.UpdateQuantityRequest) (*dto.PartResponse, error)
	AddEvent(ctx context.Context, id uuid.UUID, req dto.AddEventRequest) (*dto.PartResponse, error)
	UpdateFields(ctx context.Context, id uuid.UUID, req dto.UpdatePartRequest) (*dto.PartResponse, error)
	Lookup(ctx context.Context, code string) (*dto.LookupResponse, error)
	Locations(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type partService struct {
	repo       repository.PartRepository
	rdb        *redis.Client
	dispatcher *worker.Dispatcher
	alertEmail string
}

// NewPartService wires the part service. rdb and dispatcher may be nil in
// tests; caching and alerting degrade to no-ops.
func NewPartService(repo repository.PartRepository, rdb *redis.Client, dispatcher *worker.Dispatcher, alertEmail string) PartService {
	return &partService{repo: repo, rdb: rdb, dispatcher: dispatcher, alertEmail: alertEmail}
}

// mapPart converts a model to a DTO response.
func mapPart(p *model.Part) dto.PartResponse {
	resp := dto.PartResponse{
		ID:              p.ID.String(),
		PartNumber:      p.PartNumber,
		Name:            p.Name,
		PartType:        string(p.PartType),
		Typt:            p.Typt,
		Year:            p.Year,
		Details:         p.Details,
		Quantity:        p.Quantity,
		Location:        p.Location,
		Link:            p.Link,
		QuantityHistory: append([]model.QuantityEntry{}, p.QuantityHistory...),
		LocationHistory: append([]model.LocationEntry{}, p.LocationHistory...),
		EventsHistory:   append([]model.EventEntry{}, p.EventsHistory...),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	return resp
}

func (s *partService) Create(ctx context.Context, req dto.CreatePartRequest) (*dto.PartResponse, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	partType := model.PartType(req.PartType)
	if !partType.Valid() {
		fields["part_type"] = "must be component or consumable"
	}
	if strings.TrimSpace(req.Typt) == "" {
		fields["typt"] = "required"
	}
	if strings.TrimSpace(req.Location) == "" {
		fields["location"] = "required"
	}
	if strings.TrimSpace(req.Link) == "" {
		fields["link"] = "required"
	}
	if partType == model.PartTypeConsumable {
		if req.Year == nil {
			fields["year"] = "required for consumables"
		}
		if req.Quantity == nil {
			fields["quantity"] = "required for consumables"
		}
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		fields["quantity"] = "must not be negative"
	}
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	for attempt := 0; attempt < createMaxAttempts; attempt++ {
		partNumber := 0
		if req.PartNumber != nil {
			partNumber = *req.PartNumber
		} else {
			max, err := s.repo.MaxPartNumber(ctx)
			if err != nil {
				return nil, err
			}
			partNumber = max + 1
		}

		now := time.Now()
		p := &model.Part{
			ID:         uuid.New(),
			PartNumber: partNumber,
			Name:       req.Name,
			PartType:   partType,
			Typt:       req.Typt,
			Year:       req.Year,
			Details:    req.Details,
			Quantity:   quantity,
			Location:   req.Location,
			Link:       req.Link,
			QuantityHistory: datatypes.JSONSlice[model.QuantityEntry]{
				{Date: now, From: 0, To: quantity},
			},
			LocationHistory: datatypes.JSONSlice[model.LocationEntry]{
				{Date: now, From: nil, To: req.Location},
			},
			EventsHistory: datatypes.JSONSlice[model.EventEntry]{},
		}

		err := s.repo.Create(ctx, p)
		if err == nil {
			resp := mapPart(p)
			return &resp, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if req.PartNumber != nil {
				// Explicit numbers are never auto-reassigned.
				return nil, apierror.NewConflict(fmt.Sprintf("part number %d is already taken", partNumber))
			}
			log.Warn().Int("part_number", partNumber).Int("attempt", attempt+1).
				Msg("part number collision — recomputing")
			continue
		}
		return nil, err
	}
	return nil, apierror.NewConflict("could not assign a unique part number")
}

func (s *partService) GetByID(ctx context.Context, id uuid.UUID) (*dto.PartResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapPart(p)
	return &resp, nil
}

// GetByPartNumber accepts the raw path value so that non-numeric input from a
// misread barcode is rejected as invalid rather than panicking downstream.
func (s *partService) GetByPartNumber(ctx context.Context, raw string) (*dto.PartResponse, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, apierror.NewValidation(map[string]string{"part_number": "must be an integer"})
	}
	return s.cachedByPartNumber(ctx, n)
}

func (s *partService) List(ctx context.Context, filter dto.PartFilter) (*dto.PartListResponse, error) {
	snapshot, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	parts := query.Apply(snapshot, toQueryFilter(filter), time.Now())

	data := make([]dto.PartResponse, 0, len(parts))
	for i := range parts {
		data = append(data, mapPart(&parts[i]))
	}
	return &dto.PartListResponse{Data: data, Total: len(data)}, nil
}

func (s *partService) Move(ctx context.Context, id uuid.UUID, req dto.MovePartRequest) (*dto.PartResponse, error) {
	newLocation := strings.TrimSpace(req.Location)
	if newLocation == "" {
		return nil, apierror.NewValidation(map[string]string{"location": "required"})
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// The entry's from must capture the pre-mutation location.
	from := p.Location
	p.LocationHistory = append(p.LocationHistory, model.LocationEntry{
		Date: time.Now(),
		From: &from,
		To:   newLocation,
	})
	p.Location = newLocation

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLookup(ctx, p.PartNumber)
	resp := mapPart(p)
	return &resp, nil
}

func (s *partService) UpdateQuantity(ctx context.Context, id uuid.UUID, req dto.UpdateQuantityRequest) (*dto.PartResponse, error) {
	if req.Quantity == nil {
		return nil, apierror.NewValidation(map[string]string{"quantity": "required"})
	}
	if *req.Quantity < 0 {
		return nil, apierror.NewValidation(map[string]string{"quantity": "must not be negative"})
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PartType != model.PartTypeConsumable {
		return nil, apierror.NewValidation(map[string]string{"quantity": "quantity tracking applies to consumables only"})
	}

	p.QuantityHistory = append(p.QuantityHistory, model.QuantityEntry{
		Date: time.Now(),
		From: p.Quantity,
		To:   *req.Quantity,
	})
	p.Quantity = *req.Quantity

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLookup(ctx, p.PartNumber)

	if p.Quantity == 0 {
		s.raiseStockAlert(ctx, p)
	}

	resp := mapPart(p)
	return &resp, nil
}

func (s *partService) AddEvent(ctx context.Context, id uuid.UUID, req dto.AddEventRequest) (*dto.PartResponse, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "required"
	}
	if strings.TrimSpace(req.Technician) == "" {
		fields["technician"] = "required"
	}
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	p.EventsHistory = append(p.EventsHistory, model.EventEntry{
		Date:        time.Now(),
		Description: req.Description,
		Technician:  req.Technician,
	})

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLookup(ctx, p.PartNumber)
	resp := mapPart(p)
	return &resp, nil
}

// UpdateFields applies the edit-form patch. It deliberately never appends to
// the location or quantity history: move and the quantity endpoint are the
// only logging paths, edits are corrections.
func (s *partService) UpdateFields(ctx context.Context, id uuid.UUID, req dto.UpdatePartRequest) (*dto.PartResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.PartType != nil {
		p.PartType = model.PartType(*req.PartType)
	}
	if req.Typt != nil {
		p.Typt = *req.Typt
	}
	if req.Year != nil {
		p.Year = req.Year
	}
	if req.Details != nil {
		p.Details = req.Details
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Link != nil {
		p.Link = *req.Link
	}

	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "required"
	}
	if !p.PartType.Valid() {
		fields["part_type"] = "must be component or consumable"
	}
	if p.Year == nil {
		fields["year"] = "required"
	}
	if p.Quantity < 0 {
		fields["quantity"] = "must not be negative"
	}
	if strings.TrimSpace(p.Location) == "" {
		fields["location"] = "required"
	}
	if strings.TrimSpace(p.Link) == "" {
		fields["link"] = "required"
	}
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLookup(ctx, p.PartNumber)
	resp := mapPart(p)
	return &resp, nil
}

// Lookup resolves a scanned barcode: an integer code is tried as a part
// number first; on a miss (or non-numeric input) it falls back to a
// name-substring search over the raw string.
func (s *partService) Lookup(ctx context.Context, code string) (*dto.LookupResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apierror.NewValidation(map[string]string{"code": "required"})
	}

	if n, err := strconv.Atoi(code); err == nil {
		resp, err := s.cachedByPartNumber(ctx, n)
		if err == nil {
			return &dto.LookupResponse{Part: resp}, nil
		}
		var nf *apierror.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	snapshot, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	matches := query.Apply(snapshot, query.Filter{Search: code}, time.Now())
	out := make([]dto.PartResponse, 0, len(matches))
	for i := range matches {
		out = append(out, mapPart(&matches[i]))
	}
	return &dto.LookupResponse{Matches: out}, nil
}

func (s *partService) Locations(ctx context.Context) ([]string, error) {
	return s.repo.DistinctLocations(ctx)
}

func (s *partService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	components, err := s.repo.CountByPartType(ctx, model.PartTypeComponent)
	if err != nil {
		return nil, err
	}
	consumables, err := s.repo.CountByPartType(ctx, model.PartTypeConsumable)
	if err != nil {
		return nil, err
	}
	typtRows, err := s.repo.CountByTypt(ctx)
	if err != nil {
		return nil, err
	}

	typtCounts := make([]dto.TyptCount, 0, len(typtRows))
	for _, row := range typtRows {
		typtCounts = append(typtCounts, dto.TyptCount{Typt: row.Typt, Count: row.Count})
	}
	return &dto.StatsResponse{
		TotalParts:  total,
		Components:  components,
		Consumables: consumables,
		TyptCounts:  typtCounts,
	}, nil
}

// ─── internals ───────────────────────────────────────────────────────────────

func (s *partService) find(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("part")
		}
		return nil, err
	}
	return p, nil
}

func lookupCacheKey(partNumber int) string {
	return lookupCachePrefix + strconv.Itoa(partNumber)
}

func (s *partService) cachedByPartNumber(ctx context.Context, partNumber int) (*dto.PartResponse, error) {
	key := lookupCacheKey(partNumber)
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var resp dto.PartResponse
			if json.Unmarshal([]byte(raw), &resp) == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.repo.FindByPartNumber(ctx, partNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("part")
		}
		return nil, err
	}
	resp := mapPart(p)

	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			// Best-effort: a cold cache only costs a DB read.
			if err := s.rdb.Set(ctx, key, data, lookupCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Int("part_number", partNumber).Msg("lookup cache set failed")
			}
		}
	}
	return &resp, nil
}

func (s *partService) invalidateLookup(ctx context.Context, partNumber int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, lookupCacheKey(partNumber)).Err(); err != nil {
		log.Warn().Err(err).Int("part_number", partNumber).Msg("lookup cache invalidation failed")
	}
}

// raiseStockAlert enqueues an out-of-stock email. Failures are logged, never
// surfaced: the quantity mutation has already committed.
func (s *partService) raiseStockAlert(ctx context.Context, p *model.Part) {
	if s.dispatcher == nil || s.alertEmail == "" {
		return
	}
	payload := worker.EmailJobPayload{
		ToEmail: s.alertEmail,
		Subject: fmt.Sprintf("Out of stock: %s (#%d)", p.Name, p.PartNumber),
		Body: fmt.Sprintf("Consumable %q (part #%d) at %s has reached zero quantity.",
			p.Name, p.PartNumber, p.Location),
	}
	if err := s.dispatcher.EnqueueStockAlert(ctx, payload); err != nil {
		log.Warn().Err(err).Int("part_number", p.PartNumber).Msg("failed to enqueue stock alert")
	}
}

func toQueryFilter(f dto.PartFilter) query.Filter {
	types := make([]model.PartType, 0, len(f.PartTypes))
	for _, t := range f.PartTypes {
		types = append(types, model.PartType(t))
	}
	return query.Filter{
		Search:       f.Search,
		PartTypes:    types,
		Locations:    f.Locations,
		YearMin:      f.YearMin,
		YearMax:      f.YearMax,
		LastEventMin: f.LastEventMin,
		LastEventMax: f.LastEventMax,
		SortBy:       query.SortKey(f.SortBy),
	}
}
