package registry

import (
	"testing"

	"github.com/iov-one/bazaar/bazaartest"
	"github.com/iov-one/bazaar/errors"
	"github.com/iov-one/bazaar/store"
	"github.com/iov-one/bazaar/x/metadata"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		db := store.MemStore()
		reg, mover := NewRegistry(metadata.NewValidator())
		alice := bazaartest.RandomAddr()
		bob := bazaartest.RandomAddr()

		next, err := reg.NextID(db)
		So(err, ShouldBeNil)
		So(next, ShouldEqual, 1)

		Convey("Minting requires a locator", func() {
			_, err := reg.Mint(db, alice, "")
			So(errors.ErrInvalidMetadata.Is(err), ShouldBeTrue)
			_, err = reg.Mint(db, alice, "ipfs://with space")
			So(errors.ErrInvalidMetadata.Is(err), ShouldBeTrue)

			next, err := reg.NextID(db)
			So(err, ShouldBeNil)
			So(next, ShouldEqual, 1)
		})

		Convey("Minting requires a creator", func() {
			_, err := reg.Mint(db, nil, "ipfs://bafy1")
			So(errors.ErrInput.Is(err), ShouldBeTrue)
		})

		Convey("Unknown assets are reported", func() {
			_, err := reg.Get(db, 1)
			So(errors.ErrUnknownAsset.Is(err), ShouldBeTrue)
			_, err = mover.Transfer(db, 1, alice, bob)
			So(errors.ErrUnknownAsset.Is(err), ShouldBeTrue)
		})

		Convey("When alice mints two assets", func() {
			first, err := reg.Mint(db, alice, "ipfs://bafy1")
			So(err, ShouldBeNil)
			second, err := reg.Mint(db, alice, "ipfs://bafy2")
			So(err, ShouldBeNil)

			Convey("Ids are allocated in sequence", func() {
				So(first.ID, ShouldEqual, 1)
				So(second.ID, ShouldEqual, 2)
				next, err := reg.NextID(db)
				So(err, ShouldBeNil)
				So(next, ShouldEqual, 3)
			})

			Convey("The creator owns them", func() {
				a, err := reg.Get(db, 2)
				So(err, ShouldBeNil)
				So(a.Metadata, ShouldEqual, "ipfs://bafy2")
				So(a.Creator, ShouldResemble, alice)
				So(a.Owner, ShouldResemble, alice)

				owned, err := reg.ByOwner(db, alice)
				So(err, ShouldBeNil)
				So(owned, ShouldHaveLength, 2)
				So(owned[0].ID, ShouldEqual, 1)
				So(owned[1].ID, ShouldEqual, 2)
			})

			Convey("Only the owner can transfer", func() {
				_, err := mover.Transfer(db, 1, bob, bob)
				So(errors.ErrNotOwner.Is(err), ShouldBeTrue)

				a, err := reg.Get(db, 1)
				So(err, ShouldBeNil)
				So(a.Owner, ShouldResemble, alice)
			})

			Convey("A transfer cannot go to an invalid account", func() {
				_, err := mover.Transfer(db, 1, alice, nil)
				So(errors.ErrInput.Is(err), ShouldBeTrue)
			})

			Convey("After a transfer to bob", func() {
				a, err := mover.Transfer(db, 1, alice, bob)
				So(err, ShouldBeNil)
				So(a.Owner, ShouldResemble, bob)

				Convey("Owner indexes follow", func() {
					owned, err := reg.ByOwner(db, bob)
					So(err, ShouldBeNil)
					So(owned, ShouldHaveLength, 1)
					So(owned[0].ID, ShouldEqual, 1)

					owned, err = reg.ByOwner(db, alice)
					So(err, ShouldBeNil)
					So(owned, ShouldHaveLength, 1)
					So(owned[0].ID, ShouldEqual, 2)
				})

				Convey("The creator does not change", func() {
					created, err := reg.ByCreator(db, alice)
					So(err, ShouldBeNil)
					So(created, ShouldHaveLength, 2)

					created, err = reg.ByCreator(db, bob)
					So(err, ShouldBeNil)
					So(created, ShouldBeEmpty)
				})

				Convey("The previous owner lost the rights", func() {
					_, err := reg.CheckOwner(db, 1, alice)
					So(errors.ErrNotOwner.Is(err), ShouldBeTrue)
					_, err = reg.CheckOwner(db, 1, bob)
					So(err, ShouldBeNil)
				})
			})
		})
	})
}

func TestAssetValidate(t *testing.T) {
	Convey("Asset validation", t, func() {
		addr := bazaartest.RandomAddr()

		Convey("A complete asset is valid", func() {
			a := Asset{ID: 1, Metadata: "ipfs://x", Creator: addr, Owner: addr}
			So(a.Validate(), ShouldBeNil)
		})

		Convey("Every field is required", func() {
			err := (&Asset{}).Validate()
			So(errors.FieldErrors(err, "ID"), ShouldHaveLength, 1)
			So(errors.FieldErrors(err, "Metadata"), ShouldHaveLength, 1)
			So(errors.FieldErrors(err, "Creator"), ShouldHaveLength, 1)
			So(errors.FieldErrors(err, "Owner"), ShouldHaveLength, 1)
		})

		Convey("Serialization keeps all fields", func() {
			a := Asset{ID: 7, Metadata: "ipfs://x", Creator: addr, Owner: bazaartest.RandomAddr()}
			raw, err := a.Marshal()
			So(err, ShouldBeNil)

			var got Asset
			So(got.Unmarshal(raw), ShouldBeNil)
			So(got, ShouldResemble, a)
		})
	})
}
