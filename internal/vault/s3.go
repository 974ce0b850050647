package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"foodlog-go/internal/config"
	"foodlog-go/internal/foodlog"
)

// versionMetadataKey is the user-metadata key holding the snapshot version.
// S3 returns metadata keys lower-cased.
const versionMetadataKey = "foodlog-version"

// s3Client is the subset of *s3.Client the vault uses.
type s3Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Vault stores snapshots as objects under <prefix>/snapshots/<deviceID>.
// The version travels as object metadata so a HEAD request can read it.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   s3Client
	uploader *manager.Uploader
}

// NewS3Vault builds an S3Vault from config. Credentials come from the
// default AWS chain unless FOODLOG_S3_ACCESS_KEY_ID and
// FOODLOG_S3_SECRET_ACCESS_KEY are both set.
func NewS3Vault(ctx context.Context, cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	keyID, secret := os.Getenv("FOODLOG_S3_ACCESS_KEY_ID"), os.Getenv("FOODLOG_S3_SECRET_ACCESS_KEY")
	if keyID != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3VaultWithClient(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, s3.NewFromConfig(awsCfg, s3Opts...)), nil
}

func newS3VaultWithClient(name, bucket, prefix string, client s3Client) *S3Vault {
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

func (v *S3Vault) key(deviceID string) string {
	return path.Join(v.prefix, "snapshots", deviceID+".snapshot")
}

func (v *S3Vault) PutSnapshot(ctx context.Context, deviceID string, r io.Reader, size int64, version int64) error {
	counted := &countingReader{r: r}
	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(v.bucket),
		Key:         aws.String(v.key(deviceID)),
		Body:        counted,
		ContentType: aws.String("application/octet-stream"),
		Metadata:    map[string]string{versionMetadataKey: strconv.FormatInt(version, 10)},
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	if counted.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}
	return nil
}

func (v *S3Vault) GetSnapshot(ctx context.Context, deviceID string, w io.Writer) error {
	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(deviceID)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("device %s: %w", deviceID, foodlog.ErrNoSnapshot)
		}
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot body: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if the object does not exist.
func (v *S3Vault) SnapshotVersion(ctx context.Context, deviceID string) (int64, error) {
	out, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(deviceID)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading snapshot metadata: %w", err)
	}

	raw, ok := out.Metadata[versionMetadataKey]
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the bucket exists and is reachable.
func (v *S3Vault) ValidateSetup(ctx context.Context) error {
	_, err := v.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(v.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ foodlog.Vault = (*S3Vault)(nil)
