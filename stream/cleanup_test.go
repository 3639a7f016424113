package stream_test

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/GonzalezAnguita/dynamodeve/internal/keytpl"
	"github.com/GonzalezAnguita/dynamodeve/store"
	"github.com/GonzalezAnguita/dynamodeve/stream"
)

type fakeClient struct {
	txIn []*dynamodb.TransactWriteItemsInput
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeClient) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.txIn = append(f.txIn, in)
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func newUserStore(t *testing.T, client store.Client) *store.Store {
	t.Helper()
	s, err := store.New(client, store.Config{
		TenantID: "t1",
		Entity:   "User",
		Primary: store.Index{
			TableName:    "app",
			PartitionKey: "pk",
			SortKey:      "sk",
		},
		Fields: store.IndexFields{
			"pk": keytpl.Parse("{id}"),
			"sk": keytpl.Parse("{id}"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func removeRecord(oldImage map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "evt-1",
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			OldImage: oldImage,
		},
	}
}

func userImage(id, email string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"pk":    events.NewStringAttribute("t1#User#" + id),
		"sk":    events.NewStringAttribute("t1#User#" + id),
		"id":    events.NewStringAttribute(id),
		"email": events.NewStringAttribute(email),
	}
}

func TestHandleConstraintCleanup_ReleasesLock(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"email"}}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{removeRecord(userImage("u-1", "a@b.com"))},
	}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	if len(client.txIn) != 1 || len(client.txIn[0].TransactItems) != 1 {
		t.Fatalf("expected 1 staged removal, got %+v", client.txIn)
	}
	del := client.txIn[0].TransactItems[0].Delete
	if del == nil {
		t.Fatal("expected a Delete operation")
	}
	if v, ok := del.Key["pk"].(*types.AttributeValueMemberS); !ok || v.Value != "t1#User#a@b.com" {
		t.Errorf("unexpected lock key %v", del.Key)
	}
	if aws.ToString(del.TableName) != "app" {
		t.Errorf("unexpected table %q", aws.ToString(del.TableName))
	}
}

func TestHandleConstraintCleanup_ReservedConstraintField(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"name"}}, nil)

	image := userImage("u-1", "a@b.com")
	image["_name"] = events.NewStringAttribute("Ada")

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{removeRecord(image)}}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	if len(client.txIn) != 1 {
		t.Fatalf("expected the aliased field to be found, got %+v", client.txIn)
	}
	del := client.txIn[0].TransactItems[0].Delete
	if v, ok := del.Key["pk"].(*types.AttributeValueMemberS); !ok || v.Value != "t1#User#Ada" {
		t.Errorf("unexpected lock key %v", del.Key)
	}
}

func TestHandleConstraintCleanup_IgnoresNonRemove(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"email"}}, nil)

	record := removeRecord(userImage("u-1", "a@b.com"))
	record.EventName = "MODIFY"

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{record}}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(client.txIn) != 0 {
		t.Error("expected MODIFY events to be ignored")
	}
}

func TestHandleConstraintCleanup_IgnoresForeignItems(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"email"}}, nil)

	image := userImage("u-1", "a@b.com")
	image["pk"] = events.NewStringAttribute("t1#Order#o-9")

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{removeRecord(image)}}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(client.txIn) != 0 {
		t.Error("expected other entities' items to be ignored")
	}
}

func TestHandleConstraintCleanup_IgnoresLockRows(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"email"}}, nil)

	image := map[string]events.DynamoDBAttributeValue{
		"pk": events.NewStringAttribute("t1#User#a@b.com"),
		"sk": events.NewStringAttribute("CONSTRAINT"),
	}

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{removeRecord(image)}}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(client.txIn) != 0 {
		t.Error("expected lock rows themselves to be ignored")
	}
}

func TestHandleConstraintCleanup_MissingFieldSkipsTuple(t *testing.T) {
	client := &fakeClient{}
	s := newUserStore(t, client)
	h := stream.NewHandler(s, []stream.Constraint{{"email", "nationalId"}}, nil)

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{removeRecord(userImage("u-1", "a@b.com"))},
	}
	if err := h.HandleConstraintCleanup(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(client.txIn) != 0 {
		t.Error("expected incomplete tuples to stage nothing")
	}
}
