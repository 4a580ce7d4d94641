package elasticsearch

// DefaultIndexName is the default index for store documents.
const DefaultIndexName = "stores"

// indexMapping is the settings and mapping of the stores index. Names get an
// edge n-gram subfield so partial words match while typing.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":             { "type": "keyword" },
      "name":           { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description":    { "type": "text" },
      "address":        { "type": "text" },
      "email":          { "type": "keyword", "index": false },
      "phone":          { "type": "keyword", "index": false },
      "owner_id":       { "type": "keyword" },
      "owner_name":     { "type": "text" },
      "is_active":      { "type": "boolean" },
      "average_rating": { "type": "float" },
      "review_count":   { "type": "integer" },
      "created_at":     { "type": "date" },
      "updated_at":     { "type": "date" }
    }
  }
}`
