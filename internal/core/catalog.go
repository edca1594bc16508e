package core

// DefaultServiceCatalog is the fixed service list used for synthetic data.
var DefaultServiceCatalog = []string{
	"AWS Lambda",
	"Amazon API Gateway",
	"Amazon DynamoDB",
	"Amazon S3",
	"Amazon EC2",
	"Amazon CloudWatch",
	"AWS Step Functions",
	"Amazon SNS",
}

// Catalog returns a copy of DefaultServiceCatalog.
func Catalog() []string {
	return append([]string(nil), DefaultServiceCatalog...)
}
