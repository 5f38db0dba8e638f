package provisioning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleanmatch/cleanmatch-backend/internal/provisioning"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/dbtest"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

func TestEnsureCustomerCreatesPlaceholderOnce(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{UserID: "c1"})
		require.NoError(t, err)
		require.Equal(t, "c1@users.cleanmatch.invalid", user.Email)
		require.Equal(t, provisioning.DefaultCustomerName, user.Name)
		require.Equal(t, enums.RoleCustomer, user.Role)
		return nil
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{UserID: "c1", Name: "Other"})
		require.NoError(t, err)
		require.Equal(t, provisioning.DefaultCustomerName, user.Name)
		return nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestEnsureCustomerKeepsExistingRole(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&models.User{ID: "o1", Email: "o1@example.com", Name: "Owner", Role: enums.RoleShopOwner}).Error)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{UserID: "o1"})
		require.NoError(t, err)
		require.Equal(t, enums.RoleShopOwner, user.Role)
		require.Equal(t, "o1@example.com", user.Email)
		return nil
	})
	require.NoError(t, err)
}

func TestEnsureShopOwnerProvisionsUserAndShop(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()

	var firstID string
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		shop, err := provisioning.EnsureShopOwner(ctx, tx, "o2")
		require.NoError(t, err)
		require.Equal(t, provisioning.DefaultShopName, shop.Name)
		require.Equal(t, provisioning.DefaultShopAddress, shop.Address)
		firstID = shop.ID.String()
		return nil
	})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		shop, err := provisioning.EnsureShopOwner(ctx, tx, "o2")
		require.NoError(t, err)
		require.Equal(t, firstID, shop.ID.String())
		return nil
	})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", "o2").Error)
	require.Equal(t, enums.RoleShopOwner, user.Role)
	require.Equal(t, provisioning.DefaultShopOwnerName, user.Name)

	var shops int64
	require.NoError(t, conn.Model(&models.Shop{}).Count(&shops).Error)
	require.EqualValues(t, 1, shops)
}

func TestEnsureShopOwnerPromotesCustomer(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()
	require.NoError(t, conn.Create(&models.User{ID: "c2", Email: "c2@example.com", Name: "Cat", Role: enums.RoleCustomer}).Error)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := provisioning.EnsureShopOwner(ctx, tx, "c2")
		return err
	}))

	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", "c2").Error)
	require.Equal(t, enums.RoleShopOwner, user.Role)
}

func TestProvisioningRollsBackWithCaller(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()
	boom := errors.New("insert failed")

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := provisioning.EnsureShopOwner(ctx, tx, "o3"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var users, shops int64
	require.NoError(t, conn.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, conn.Model(&models.Shop{}).Count(&shops).Error)
	require.Zero(t, users)
	require.Zero(t, shops)
}

func TestEnsureCustomerRequiresID(t *testing.T) {
	client, _ := dbtest.Client(t)
	ctx := context.Background()
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := provisioning.EnsureCustomer(ctx, tx, provisioning.CustomerInput{UserID: "  "})
		return err
	})
	require.Error(t, err)
}
