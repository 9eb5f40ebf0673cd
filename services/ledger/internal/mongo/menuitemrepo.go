package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MenuItemRepo keeps menu documents schemaless. The ordering side
// normalizes whichever field names the catalog uses.
type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection("menu_items"),
	}
}

func (r *MenuItemRepo) List(ctx context.Context) ([]map[string]interface{}, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}

	result := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		item := plainMap(doc)
		if _, ok := item["id"]; !ok {
			item["id"] = item["_id"]
		}
		delete(item, "_id")
		result = append(result, item)
	}

	return result, nil
}

func (r *MenuItemRepo) Save(ctx context.Context, id string, doc map[string]interface{}) error {
	if doc == nil {
		return fmt.Errorf("menu item is nil")
	}

	stored := make(bson.M, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, stored, opts); err != nil {
		return fmt.Errorf("cannot save menu item: %w", err)
	}

	return nil
}

// plainMap rewrites driver document types into the plain maps and slices a
// JSON decoder would have produced.
func plainMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		return plainMap(t)
	case map[string]interface{}:
		return plainMap(t)
	case primitive.D:
		return plainMap(t.Map())
	case primitive.A:
		return plainSlice(t)
	case []interface{}:
		return plainSlice(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func plainSlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = plainValue(v)
	}
	return out
}
