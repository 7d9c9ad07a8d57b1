package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/thesavant42/icr-browser/internal/models"
)

func TestNormalizeCommunityImage(t *testing.T) {
	listing := models.Listing{Repositories: []models.Repository{{
		Repository: "intersystems/iris-community",
		Tags:       []string{"2023.1.0-arm64", "2023.1.0", "latest"},
	}}}

	images, err := Normalize(listing, DefaultRules())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("Normalize() returned %d images, want 1", len(images))
	}

	img := images[0]
	if img.Kind != models.KindPrimary {
		t.Errorf("Kind = %q, want %q", img.Kind, models.KindPrimary)
	}
	if img.Edition != models.EditionCommunity {
		t.Errorf("Edition = %q, want %q", img.Edition, models.EditionCommunity)
	}
	if img.FullName != "containers.intersystems.com/intersystems/iris-community" {
		t.Errorf("FullName = %q", img.FullName)
	}
	if !img.PublicAccess {
		t.Error("community image should be publicly accessible")
	}

	wantARM := []string{"2023.1.0", "latest"}
	if !reflect.DeepEqual(img.Arch[models.ArchARM64], wantARM) {
		t.Errorf("arm64 tags = %v, want %v", img.Arch[models.ArchARM64], wantARM)
	}
	wantAMD := []string{"2023.1.0", "latest"}
	if !reflect.DeepEqual(img.Arch[models.ArchAMD64], wantAMD) {
		t.Errorf("amd64 tags = %v, want %v", img.Arch[models.ArchAMD64], wantAMD)
	}
	for _, tag := range img.Arch[models.ArchAMD64] {
		if tag == "2023.1.0-arm64" {
			t.Error("amd64 list must not contain the arm64-suffixed raw tag")
		}
	}
}

func TestNormalizeClassification(t *testing.T) {
	tests := []struct {
		path        string
		wantKind    models.Kind
		wantEdition models.Edition
		wantPublic  bool
	}{
		{"intersystems/iris", models.KindPrimary, models.EditionGeneral, false},
		{"intersystems/irishealth-community", models.KindPrimary, models.EditionCommunity, true},
		{"intersystems/iris-operator", models.KindTools, models.EditionAny, false},
		{"intersystems/webgateway", models.KindTools, models.EditionAny, true},
		{"intersystems/sam", models.KindTools, models.EditionAny, false},
		{"iscinternal/iris-community", models.KindPrimary, models.EditionCommunity, false},
		{"iscinternal/webgateway", models.KindTools, models.EditionAny, false},
		{"intersystems/iris-ml-community", models.KindPrimary, models.EditionCommunity, true},
		{"intersystems/iris/nested", models.KindPrimary, models.EditionGeneral, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			images, err := Normalize(models.Listing{Repositories: []models.Repository{{Repository: tt.path}}}, DefaultRules())
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			img := images[0]
			if img.Kind != tt.wantKind || img.Edition != tt.wantEdition || img.PublicAccess != tt.wantPublic {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					img.Kind, img.Edition, img.PublicAccess, tt.wantKind, tt.wantEdition, tt.wantPublic)
			}
		})
	}
}

func TestNormalizeSplitsOnFirstSlash(t *testing.T) {
	images, err := Normalize(models.Listing{Repositories: []models.Repository{
		{Repository: "intersystems/tools/sam"},
	}}, DefaultRules())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if images[0].Root != "intersystems" || images[0].Name != "tools/sam" {
		t.Errorf("got root %q name %q", images[0].Root, images[0].Name)
	}
}

func TestNormalizeArmOnlyRepository(t *testing.T) {
	images, err := Normalize(models.Listing{Repositories: []models.Repository{{
		Repository: "intersystems/iris-community-arm64",
		Tags:       []string{"2022.1.0-arm64", "2022.2.0-arm64"},
	}}}, DefaultRules())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := images[0].Arch[models.ArchAMD64]; len(got) != 0 {
		t.Errorf("amd64 tags = %v, want none", got)
	}
	if got := images[0].Arch[models.ArchARM64]; !reflect.DeepEqual(got, []string{"2022.1.0", "2022.2.0"}) {
		t.Errorf("arm64 tags = %v", got)
	}
}

// TestNormalizeRejectsMalformedPath verifies the whole listing is rejected
func TestNormalizeRejectsMalformedPath(t *testing.T) {
	tests := []string{"iris-community", "/iris", "intersystems/", ""}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			listing := models.Listing{Repositories: []models.Repository{
				{Repository: "intersystems/iris"},
				{Repository: path},
			}}
			images, err := Normalize(listing, DefaultRules())
			if err == nil {
				t.Fatalf("Normalize(%q) expected error", path)
			}
			if images != nil {
				t.Errorf("Normalize(%q) returned partial catalog %v", path, images)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if verr.Index != 1 || verr.Path != path {
				t.Errorf("ValidationError = %+v", verr)
			}
		})
	}
}
