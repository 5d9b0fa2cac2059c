// Package dynamo 以 DynamoDB 保存食材目錄與食譜
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxTransactItems DynamoDB 單一交易可寫入的項目上限
const MaxTransactItems = 100

var (
	_ catalog.Store      = (*Store)(nil)
	_ recipe.RecordStore = (*Store)(nil)
)

// API 用到的 DynamoDB 操作
type API interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store DynamoDB 實作
type Store struct {
	client           API
	recipesTable     string
	ingredientsTable string
	now              func() time.Time
}

// New 以既有 client 建立 Store
func New(client API, recipesTable, ingredientsTable string) *Store {
	return &Store{
		client:           client,
		recipesTable:     recipesTable,
		ingredientsTable: ingredientsTable,
		now:              time.Now,
	}
}

// Open 依設定載入 AWS 認證並建立 Store
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	common.LogInfo("Using DynamoDB store",
		zap.String("region", cfg.Region),
		zap.String("recipes_table", cfg.RecipesTable),
		zap.String("ingredients_table", cfg.IngredientTable),
	)
	return New(dynamodb.NewFromConfig(awsCfg), cfg.RecipesTable, cfg.IngredientTable), nil
}

type ingredientItem struct {
	ID                string    `dynamodbav:"id"`
	Name              string    `dynamodbav:"name"`
	CostPerUnit       float64   `dynamodbav:"costPerUnit"`
	Unit              string    `dynamodbav:"unit"`
	Category          string    `dynamodbav:"category,omitempty"`
	Supplier          string    `dynamodbav:"supplier,omitempty"`
	Allergen          string    `dynamodbav:"allergen,omitempty"`
	Description       string    `dynamodbav:"description,omitempty"`
	LowStockThreshold *float64  `dynamodbav:"lowStockThreshold,omitempty"`
	CurrentStock      *float64  `dynamodbav:"currentStock,omitempty"`
	CreatedAt         time.Time `dynamodbav:"createdAt"`
	UpdatedAt         time.Time `dynamodbav:"updatedAt"`
}

type ingredientLine struct {
	IngredientID string  `dynamodbav:"ingredientId"`
	Name         string  `dynamodbav:"name"`
	Quantity     float64 `dynamodbav:"quantity"`
	Unit         string  `dynamodbav:"unit"`
}

type nutritionItem struct {
	Calories          float64 `dynamodbav:"calories"`
	ProteinGrams      float64 `dynamodbav:"proteinGrams"`
	FatGrams          float64 `dynamodbav:"fatGrams"`
	CarbohydrateGrams float64 `dynamodbav:"carbohydrateGrams"`
	Disclaimer        string  `dynamodbav:"disclaimer,omitempty"`
}

type recipeItem struct {
	ID              string           `dynamodbav:"id"`
	Name            string           `dynamodbav:"name"`
	Category        string           `dynamodbav:"category,omitempty"`
	PrepTime        *int             `dynamodbav:"prepTime,omitempty"`
	Cuisine         string           `dynamodbav:"cuisine,omitempty"`
	Instructions    string           `dynamodbav:"instructions"`
	ImageURL        string           `dynamodbav:"imageUrl,omitempty"`
	DietaryTags     []string         `dynamodbav:"dietaryTags"`
	Ingredients     []ingredientLine `dynamodbav:"ingredients"`
	Cost            float64          `dynamodbav:"cost"`
	NutritionalInfo *nutritionItem   `dynamodbav:"nutritionalInfo,omitempty"`
	CreatedAt       time.Time        `dynamodbav:"createdAt"`
	UpdatedAt       time.Time        `dynamodbav:"updatedAt"`
}

// ListIngredients 掃描整個食材表
func (s *Store) ListIngredients(ctx context.Context) ([]catalog.Entry, error) {
	entries := []catalog.Entry{}
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.ingredientsTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning ingredients: %w", err)
		}

		var items []ingredientItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshaling ingredients: %w", err)
		}
		for _, it := range items {
			entries = append(entries, catalog.Entry{
				ID:                it.ID,
				Name:              it.Name,
				CostPerUnit:       it.CostPerUnit,
				BaseUnit:          it.Unit,
				Category:          it.Category,
				Supplier:          it.Supplier,
				Allergen:          it.Allergen,
				Description:       it.Description,
				LowStockThreshold: it.LowStockThreshold,
				CurrentStock:      it.CurrentStock,
				CreatedAt:         it.CreatedAt,
				UpdatedAt:         it.UpdatedAt,
			})
		}

		if len(out.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// CreateIngredients 以單一交易寫入
func (s *Store) CreateIngredients(ctx context.Context, entries []catalog.Entry) ([]string, error) {
	now := s.now()
	ids := make([]string, len(entries))
	items := make([]interface{}, len(entries))
	for i, e := range entries {
		ids[i] = uuid.New().String()
		items[i] = ingredientItem{
			ID:                ids[i],
			Name:              e.Name,
			CostPerUnit:       e.CostPerUnit,
			Unit:              e.BaseUnit,
			Category:          e.Category,
			Supplier:          e.Supplier,
			Allergen:          e.Allergen,
			Description:       e.Description,
			LowStockThreshold: e.LowStockThreshold,
			CurrentStock:      e.CurrentStock,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	}
	if err := s.transactPut(ctx, s.ingredientsTable, items); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateRecipes 以單一交易寫入；超過交易上限時整批拒絕而不是拆批
func (s *Store) CreateRecipes(ctx context.Context, drafts []recipe.Draft) ([]string, error) {
	now := s.now()
	ids := make([]string, len(drafts))
	items := make([]interface{}, len(drafts))
	for i, d := range drafts {
		ids[i] = uuid.New().String()
		lines := make([]ingredientLine, len(d.Ingredients))
		for j, ing := range d.Ingredients {
			lines[j] = ingredientLine{IngredientID: ing.CatalogID, Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
		}
		tags := d.DietaryTags
		if tags == nil {
			tags = []string{}
		}
		items[i] = recipeItem{
			ID:           ids[i],
			Name:         d.Name,
			Category:     d.Category,
			PrepTime:     d.PrepTime,
			Cuisine:      d.Cuisine,
			Instructions: d.Instructions,
			ImageURL:     d.ImageURL,
			DietaryTags:  tags,
			Ingredients:  lines,
			Cost:         d.Cost,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	if err := s.transactPut(ctx, s.recipesTable, items); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) transactPut(ctx context.Context, table string, items []interface{}) error {
	if len(items) > MaxTransactItems {
		return fmt.Errorf("batch of %d items exceeds DynamoDB transaction limit of %d", len(items), MaxTransactItems)
	}
	if len(items) == 0 {
		return nil
	}

	writes := make([]types.TransactWriteItem, len(items))
	for i, it := range items {
		av, err := attributevalue.MarshalMap(it)
		if err != nil {
			return fmt.Errorf("marshaling item: %w", err)
		}
		writes[i] = types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(table),
				Item:                av,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		}
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes}); err != nil {
		return fmt.Errorf("writing %d items to %s: %w", len(items), table, err)
	}
	return nil
}

// UpdateNutrition 只設定 nutritionalInfo；食譜不存在時回傳 ErrNotFound
func (s *Store) UpdateNutrition(ctx context.Context, id string, info recipe.NutritionResult) error {
	nutrition, err := attributevalue.Marshal(nutritionItem(info))
	if err != nil {
		return fmt.Errorf("marshaling nutrition: %w", err)
	}
	updatedAt, err := attributevalue.Marshal(s.now())
	if err != nil {
		return fmt.Errorf("marshaling timestamp: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.recipesTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET nutritionalInfo = :n, updatedAt = :u"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": nutrition,
			":u": updatedAt,
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating nutrition in DynamoDB: %w", err)
	}
	return nil
}

// GetRecipe 讀取單筆食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.recipesTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting recipe from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, common.ErrNotFound
	}

	var it recipeItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshaling recipe: %w", err)
	}

	rec := &recipe.Record{
		ID: it.ID,
		Draft: recipe.Draft{
			Name:         it.Name,
			Category:     it.Category,
			PrepTime:     it.PrepTime,
			Cuisine:      it.Cuisine,
			Instructions: it.Instructions,
			ImageURL:     it.ImageURL,
			DietaryTags:  it.DietaryTags,
			Ingredients:  make([]recipe.ResolvedIngredient, len(it.Ingredients)),
			Cost:         it.Cost,
		},
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
	if rec.DietaryTags == nil {
		rec.DietaryTags = []string{}
	}
	for i, l := range it.Ingredients {
		rec.Ingredients[i] = recipe.ResolvedIngredient{CatalogID: l.IngredientID, Name: l.Name, Quantity: l.Quantity, Unit: l.Unit}
	}
	if it.NutritionalInfo != nil {
		info := recipe.NutritionResult(*it.NutritionalInfo)
		rec.NutritionalInfo = &info
	}
	return rec, nil
}
