package envstore

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "key"
	valueAttribute    = "value"
)

// DynamoDBStore keeps one item per key in a table whose partition key is the string attribute
// "key". The value is stored as the binary attribute "value".
type DynamoDBStore struct {
	dynamodb dynamodbiface.DynamoDBAPI
	table    string
}

func NewDynamoDBStore(client dynamodbiface.DynamoDBAPI, table string) *DynamoDBStore {
	return &DynamoDBStore{dynamodb: client, table: table}
}

func (d *DynamoDBStore) Write(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := d.dynamodb.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(key)},
			valueAttribute:    {B: data},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "could not write %q to dynamodb table %s", key, d.table)
	}
	return nil
}

func (d *DynamoDBStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	result, err := d.dynamodb.GetItem(&dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(key)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %q from dynamodb table %s", key, d.table)
	}
	if result == nil || result.Item == nil || result.Item[valueAttribute] == nil {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return result.Item[valueAttribute].B, nil
}
