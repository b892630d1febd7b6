package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	vehiclesCollection = "vehicles"
	clientsCollection  = "clients"
	driversCollection  = "drivers"

	defaultTimeout     = 5 * time.Second
	defaultSearchLimit = 100
)

// Marketplace reads vehicles, clients and drivers from the marketplace document store.
type Marketplace struct {
	db          *mongo.Database
	timeout     time.Duration
	searchLimit int64
}

type Option func(*Marketplace)

func WithTimeout(d time.Duration) Option {
	return func(m *Marketplace) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithSearchLimit(n int64) Option {
	return func(m *Marketplace) {
		if n > 0 {
			m.searchLimit = n
		}
	}
}

func NewMarketplace(db *mongo.Database, opts ...Option) *Marketplace {
	m := &Marketplace{
		db:          db,
		timeout:     defaultTimeout,
		searchLimit: defaultSearchLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens a client and checks the deployment answers a ping.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return cli, nil
}

type vehicleDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	OwnerID         primitive.ObjectID `bson:"ownerId"`
	Status          string             `bson:"status"`
	DailyRate       float64            `bson:"dailyRate"`
	SecurityDeposit float64            `bson:"securityDeposit"`
}

type driverDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	ApprovalStatus string             `bson:"approvalStatus"`
}

type idDocument struct {
	ID primitive.ObjectID `bson:"_id"`
}

func (m *Marketplace) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle %q", models.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc vehicleDocument
	err = m.db.Collection(vehiclesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	return &models.Vehicle{
		ID:              doc.ID.Hex(),
		OwnerID:         doc.OwnerID.Hex(),
		Status:          models.VehicleStatus(doc.Status),
		DailyRate:       int64(math.Round(doc.DailyRate)),
		SecurityDeposit: int64(math.Round(doc.SecurityDeposit)),
	}, nil
}

func (m *Marketplace) ClientExists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: client %q", models.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	n, err := m.db.Collection(clientsCollection).CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count clients: %w", err)
	}
	return n > 0, nil
}

// SearchClientIDs matches text case-insensitively against name, email and phone.
func (m *Marketplace) SearchClientIDs(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"fullName": pattern},
		bson.M{"email": pattern},
		bson.M{"phone": pattern},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetLimit(m.searchLimit)

	cursor, err := m.db.Collection(clientsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []idDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

func (m *Marketplace) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: driver %q", models.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc driverDocument
	err = m.db.Collection(driversCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find driver: %w", err)
	}

	return &models.Driver{
		ID:             doc.ID.Hex(),
		ApprovalStatus: models.DriverApprovalStatus(doc.ApprovalStatus),
	}, nil
}

// Ping reports whether the document store is reachable, for the health endpoint.
func (m *Marketplace) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.db.Client().Ping(ctx, nil)
}
