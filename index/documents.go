// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"fmt"
	"strings"

	"github.com/poiesic/marketnews/core"
)

// Metadata keys attached to every indexed document.
const (
	MetaArticleID    = "article_id"
	MetaTitle        = "title"
	MetaSource       = "source"
	MetaURL          = "url"
	MetaPublishedAt  = "published_at"
	MetaEntityName   = "entity_name"
	MetaEntitySymbol = "entity_symbol"
	MetaSentiment    = "sentiment"
	MetaIndustry     = "industry"
	MetaEntityType   = "entity_type"
)

// Values for the entity_type metadata key. A general document covers the
// whole article; a specific document covers one (article, entity) pair.
const (
	EntityTypeGeneral  = "general"
	EntityTypeSpecific = "specific"
)

// Document is one unit of the vector index: an embeddable text block plus
// flat metadata. The ID is the idempotency key for upserts.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// BuildDocuments derives index documents from articles. An article with
// entities yields one entity-scoped document per entity; an article without
// entities yields a single general document.
func BuildDocuments(articles []core.Article) []Document {
	var docs []Document
	for i := range articles {
		article := &articles[i]
		if len(article.Entities) == 0 {
			docs = append(docs, generalDocument(article))
			continue
		}
		for j := range article.Entities {
			docs = append(docs, entityDocument(article, &article.Entities[j]))
		}
	}
	return docs
}

func generalDocument(article *core.Article) Document {
	content := fmt.Sprintf(
		"Title: %s\nPublished on: %s\nSource: %s\nURL: %s\n\nDescription: %s",
		article.Title, article.PublishedAt, article.Source, article.URL, article.Description)
	return Document{
		ID:      article.UUID,
		Content: content,
		Metadata: map[string]string{
			MetaArticleID:   article.UUID,
			MetaTitle:       article.Title,
			MetaSource:      article.Source,
			MetaURL:         article.URL,
			MetaPublishedAt: article.PublishedAt,
			MetaEntityType:  EntityTypeGeneral,
		},
	}
}

func entityDocument(article *core.Article, entity *core.Entity) Document {
	industry := entity.Industry
	if industry == "" {
		industry = "N/A"
	}
	content := fmt.Sprintf(
		"Title: %s\nEntity: %s (%s)\nSentiment: %s\nIndustry: %s\nPublished on: %s\nURL: %s\n\nDescription: %s",
		article.Title, entity.Name, entity.Symbol, entity.Sentiment, industry,
		article.PublishedAt, article.URL, article.Description)
	return Document{
		ID:      entityDocID(article.UUID, entity.Name),
		Content: content,
		Metadata: map[string]string{
			MetaArticleID:    article.UUID,
			MetaTitle:        article.Title,
			MetaSource:       article.Source,
			MetaURL:          article.URL,
			MetaPublishedAt:  article.PublishedAt,
			MetaEntityName:   entity.Name,
			MetaEntitySymbol: entity.Symbol,
			MetaSentiment:    entity.Sentiment,
			MetaIndustry:     industry,
			MetaEntityType:   EntityTypeSpecific,
		},
	}
}

// entityDocID builds the id for an entity-scoped document. The entity name
// is normalized so "Apple Inc." and "apple inc" map to the same document.
func entityDocID(uuid, name string) string {
	normalized := strings.ReplaceAll(core.NormalizeName(name), " ", "_")
	if normalized == "" {
		return uuid
	}
	return uuid + "_" + normalized
}
