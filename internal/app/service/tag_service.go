package service

import (
	"sort"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
)

// TagCount 메뉴 태그와 사용 중인 메뉴 수
type TagCount struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
}

type TagService interface {
	ListTags() ([]TagCount, error)
	GetTagsByCategory(category string) ([]TagCount, error)
}

type tagService struct {
	productRepo repository.ProductRepository
}

func NewTagService(productRepo repository.ProductRepository) TagService {
	return &tagService{productRepo: productRepo}
}

// ListTags 모든 메뉴 태그 목록 조회
func (s *tagService) ListTags() ([]TagCount, error) {
	return s.GetTagsByCategory("")
}

// GetTagsByCategory 카테고리별 태그 조회 (많이 쓰인 순)
func (s *tagService) GetTagsByCategory(category string) ([]TagCount, error) {
	products, _, err := s.productRepo.FindWithFilter(model.ProductFilter{Category: category})
	if err != nil {
		return nil, apperrors.Storage("tag.GetTagsByCategory", err)
	}

	counts := make(map[string]int)
	for _, p := range products {
		for _, t := range p.Tags {
			counts[t]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		tags = append(tags, TagCount{Name: name, Products: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Products != tags[j].Products {
			return tags[i].Products > tags[j].Products
		}
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}
