package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "asiops/internal/bookings/errors"
	"asiops/pkg/config"
	mongotx "asiops/pkg/db/mongo"
	"asiops/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// AllocationWrite is the persisted form of an allocation edit. Exactly one
// override is set; the other is removed from the document.
type AllocationWrite struct {
	Template      model.DurationTemplate
	OverrideHours *float64
	OverrideDays  *float64
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, update *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	UpdateAllocation(ctx context.Context, id string, write AllocationWrite) (*model.Booking, error)
	FindScheduledBetween(ctx context.Context, fromDate, toDate string) ([]model.Booking, error)
	FindEOTScanSet(ctx context.Context) ([]model.Booking, error)
	StampEOTPrompt(ctx context.Context, id string, at time.Time) (bool, error)
	RecordEOTDecision(ctx context.Context, id string, decision model.EOTDecision, at time.Time) (*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.ID = ""
	if booking.AllocatedStaff == nil {
		booking.AllocatedStaff = []model.AllocatedStaff{}
	}

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	oid, err := r.objectID(id)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_date", Value: -1}, {Key: "scheduled_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, update *model.BookingUpdate) (*model.Booking, error) {
	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if update.ClientName != "" {
		set["client_name"] = update.ClientName
	}
	if update.SiteAddress != nil {
		set["site_address"] = *update.SiteAddress
	}
	if update.SiteContact != nil {
		set["site_contact"] = update.SiteContact
	}
	if update.ScheduledDate != "" {
		set["scheduled_date"] = update.ScheduledDate
	}
	if update.ScheduledTime != nil {
		set["scheduled_time"] = *update.ScheduledTime
	}
	if update.AllocatedStaff != nil {
		set["allocated_staff"] = *update.AllocatedStaff
	}
	if update.ConvertedJobID != nil {
		set["converted_job_id"] = *update.ConvertedJobID
	}
	if update.Status != "" {
		set["status"] = update.Status
	}

	return r.findOneAndUpdate(ctx, id, bson.M{}, bson.M{"$set": set})
}

func (r *mongoBookingRepository) UpdateAllocation(ctx context.Context, id string, write AllocationWrite) (*model.Booking, error) {
	set := bson.M{
		"resource_duration_template": write.Template,
		"updated_at":                 time.Now().UTC().Truncate(time.Millisecond),
	}
	unset := bson.M{}
	if write.OverrideHours != nil {
		set["resource_duration_override_hours"] = *write.OverrideHours
	} else {
		unset["resource_duration_override_hours"] = ""
	}
	if write.OverrideDays != nil {
		set["resource_duration_override_days"] = *write.OverrideDays
	} else {
		unset["resource_duration_override_days"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.findOneAndUpdate(ctx, id, bson.M{}, update)
}

func (r *mongoBookingRepository) findOneAndUpdate(ctx context.Context, id string, extra bson.M, update bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	oid, err := r.objectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking model.Booking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	oid, err := r.objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

// FindScheduledBetween returns non-cancelled bookings whose scheduled date
// falls in [fromDate, toDate). Dates are YYYY-MM-DD so they order as strings.
func (r *mongoBookingRepository) FindScheduledBetween(ctx context.Context, fromDate, toDate string) ([]model.Booking, error) {
	filter := bson.M{
		"scheduled_date": bson.M{"$gte": fromDate, "$lt": toDate},
		"status":         bson.M{"$ne": model.BookingCancelled},
	}
	return r.find(ctx, filter)
}

// FindEOTScanSet returns bookings that may still need an EOT prompt: linked
// to a job, not cancelled and not yet decided.
func (r *mongoBookingRepository) FindEOTScanSet(ctx context.Context) ([]model.Booking, error) {
	filter := bson.M{
		"status":               bson.M{"$ne": model.BookingCancelled},
		"converted_job_id":     bson.M{"$exists": true, "$ne": ""},
		"eot_check.decided_at": bson.M{"$exists": false},
	}
	return r.find(ctx, filter)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M) ([]model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []model.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// StampEOTPrompt records the first time a booking was seen as an EOT
// candidate. The filter makes the write conditional: an existing stamp or
// a recorded decision is never touched, so concurrent scanners race safely.
// It reports whether this call performed the stamp.
func (r *mongoBookingRepository) StampEOTPrompt(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	oid, err := r.objectID(id)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":                   oid,
		"eot_check.prompted_at": bson.M{"$exists": false},
		"eot_check.decided_at":  bson.M{"$exists": false},
		"eot_check.status": bson.M{"$nin": []model.EOTStatus{
			model.EOTStatusNotRequired,
			model.EOTStatusRequested,
		}},
	}
	update := bson.M{"$set": bson.M{
		"eot_check.status":      model.EOTStatusPending,
		"eot_check.prompted_at": at.UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to stamp EOT prompt: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// RecordEOTDecision moves a pending EOT check to its decided state. Only a
// check without decided_at matches, so the first decision wins and any
// later one gets ErrAlreadyDecided.
func (r *mongoBookingRepository) RecordEOTDecision(ctx context.Context, id string, decision model.EOTDecision, at time.Time) (*model.Booking, error) {
	extra := bson.M{
		"eot_check.status":     model.EOTStatusPending,
		"eot_check.decided_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"eot_check.status":     decision.Decision,
		"eot_check.decided_at": at.UTC().Truncate(time.Millisecond),
		"eot_check.decided_by": decision.DecidedBy,
		"eot_check.note":       decision.Note,
		"updated_at":           at.UTC().Truncate(time.Millisecond),
	}}

	booking, err := r.findOneAndUpdate(ctx, id, extra, update)
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, bookingserrors.ErrAlreadyDecided
	}
	return booking, err
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
